// Package artifact owns the three-file output bundle contract: writing it,
// staging it into an isolated directory before grading, and reading it back
// with a bounded retry on a narrow class of transient OS errors (bind-mounted
// volumes intermittently raise EDEADLK). All other I/O errors propagate
// immediately.
package artifact

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/avast/retry-go"

	"github.com/greenbench/comtrade-bench/internal/domain"
)

const (
	ioRetryAttempts  = 10
	ioRetryBaseDelay = 50 * time.Millisecond
	ioRetryMaxDelay  = 500 * time.Millisecond

	// DefaultIOMaxElapsed caps the total time spent retrying a single
	// transient-failing operation before it is escalated to a timeout.
	DefaultIOMaxElapsed = 5 * time.Second
)

// isTransientFS reports whether err is in the retryable class of OS-level
// transient errors.
func isTransientFS(err error) bool {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return false
	}
	return errno == syscall.EDEADLK || errno == syscall.EAGAIN
}

// withRetries runs fn under capped exponential backoff for transient
// filesystem errors. Once maxElapsed has passed, a still-transient failure is
// converted into a definitive domain.ErrIODeadline; non-transient errors
// return unchanged on first occurrence.
func withRetries(maxElapsed time.Duration, fn func() error) error {
	if maxElapsed <= 0 {
		maxElapsed = DefaultIOMaxElapsed
	}
	start := time.Now()
	err := retry.Do(fn,
		retry.Attempts(ioRetryAttempts),
		retry.Delay(ioRetryBaseDelay),
		retry.MaxDelay(ioRetryMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return isTransientFS(err) && time.Since(start) < maxElapsed
		}),
	)
	if err != nil && isTransientFS(err) {
		return fmt.Errorf("%w: %v", domain.ErrIODeadline, err)
	}
	return err
}

// ReadFile reads a whole file with transient-error retries.
func ReadFile(path string, maxElapsed time.Duration) ([]byte, error) {
	var data []byte
	err := withRetries(maxElapsed, func() error {
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		data = b
		return nil
	})
	return data, err
}
