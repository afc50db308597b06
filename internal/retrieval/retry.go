package retrieval

import (
	"context"
	"time"
)

// DefaultMaxRetries is the fixed retry bound per request.
const DefaultMaxRetries = 3

// Policy is an explicit per-request retry policy: an attempt bound, a backoff
// function, and a retryable-condition predicate. It behaves identically
// whether execution is synchronous or task-based; the sleep function is
// injectable so tests can observe the exact backoff sequence without real
// waiting.
type Policy struct {
	// MaxRetries bounds retries after the initial attempt.
	MaxRetries int

	// Backoff returns the delay before attempt+1 given the zero-based
	// failed attempt number.
	Backoff func(attempt int) time.Duration

	// Retryable decides whether an error is worth retrying. Non-retryable
	// errors abort immediately.
	Retryable func(error) bool

	// Sleep blocks for the backoff duration. Nil means time.Sleep.
	Sleep func(time.Duration)
}

// DefaultPolicy is the contract policy: up to 3 retries on transient
// failures with deterministic exponential backoff of 2^attempt units
// (1, 2, 4 for attempts 0, 1, 2).
func DefaultPolicy(unit time.Duration) Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		Backoff:    func(attempt int) time.Duration { return unit << uint(attempt) },
		Retryable:  IsTransient,
	}
}

// Do runs op under the policy. onRetry, if non-nil, is invoked before each
// backoff sleep with the zero-based attempt number, the computed delay, and
// the error that triggered the retry. The returned error is the last attempt's
// error once retries are exhausted or a permanent error is hit.
func (p Policy) Do(ctx context.Context, op func() error, onRetry func(attempt int, delay time.Duration, err error)) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) || attempt >= p.MaxRetries {
			return err
		}

		delay := p.Backoff(attempt)
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
		sleep(delay)
	}
}
