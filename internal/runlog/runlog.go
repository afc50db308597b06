// Package runlog records the execution narrative of a retrieval run. The
// collected lines become the artifact's run.log, which the scorer later reads
// as independent evidence of fault handling, so lines are part of the output
// contract and not just operator logging. Each line is additionally mirrored
// to the process logger.
package runlog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Level is a run-log line severity.
type Level string

// Run-log severities. The scorer checks for level-token diversity, so the
// tokens themselves are contract values.
const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Recorder accumulates leveled narrative lines. Safe for concurrent use,
// though retrieval itself is strictly sequential.
type Recorder struct {
	mu     sync.Mutex
	lines  []string
	logger logrus.FieldLogger
}

// New returns a Recorder mirroring lines to logger. A nil logger disables
// mirroring.
func New(logger logrus.FieldLogger) *Recorder {
	return &Recorder{logger: logger}
}

// Infof records an INFO line.
func (r *Recorder) Infof(format string, args ...any) { r.append(LevelInfo, format, args...) }

// Warnf records a WARN line.
func (r *Recorder) Warnf(format string, args ...any) { r.append(LevelWarn, format, args...) }

// Errorf records an ERROR line.
func (r *Recorder) Errorf(format string, args ...any) { r.append(LevelError, format, args...) }

func (r *Recorder) append(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.mu.Lock()
	r.lines = append(r.lines, fmt.Sprintf("%s: %s", level, msg))
	r.mu.Unlock()

	if r.logger == nil {
		return
	}
	switch level {
	case LevelWarn:
		r.logger.Warn(msg)
	case LevelError:
		r.logger.Error(msg)
	default:
		r.logger.Info(msg)
	}
}

// Lines returns a copy of the recorded lines in order.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Text renders the narrative as newline-terminated text for run.log.
func (r *Recorder) Text() string {
	lines := r.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
