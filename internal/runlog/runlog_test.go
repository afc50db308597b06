package runlog

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_LevelsAndOrder(t *testing.T) {
	r := New(nil)
	r.Infof("task %s started", "T1")
	r.Warnf("HTTP %d received", 429)
	r.Errorf("max retries %s reached", "limit")

	assert.Equal(t, []string{
		"INFO: task T1 started",
		"WARN: HTTP 429 received",
		"ERROR: max retries limit reached",
	}, r.Lines())
}

func TestRecorder_Text(t *testing.T) {
	r := New(nil)
	assert.Empty(t, r.Text())

	r.Infof("one")
	r.Infof("two")
	assert.Equal(t, "INFO: one\nINFO: two\n", r.Text())
}

func TestRecorder_LinesAreCopies(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	r := New(log)
	r.Infof("original")

	lines := r.Lines()
	lines[0] = "tampered"
	assert.Equal(t, []string{"INFO: original"}, r.Lines())
}
