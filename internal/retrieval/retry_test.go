package retrieval

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy_BackoffSequence(t *testing.T) {
	var slept []time.Duration
	policy := DefaultPolicy(time.Second)
	policy.Sleep = func(d time.Duration) { slept = append(slept, d) }

	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		return &StatusError{StatusCode: 429}
	}, nil)

	require.Error(t, err)
	assert.Equal(t, 4, attempts)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}, slept)
}

func TestPolicy_SucceedsAfterRetries(t *testing.T) {
	policy := DefaultPolicy(time.Millisecond)
	policy.Sleep = func(time.Duration) {}

	var retries []int
	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return &StatusError{StatusCode: 500}
		}
		return nil
	}, func(attempt int, _ time.Duration, err error) {
		retries = append(retries, attempt)
		assert.Equal(t, 500, StatusOf(err))
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{0, 1}, retries)
}

func TestPolicy_PermanentErrorAbortsImmediately(t *testing.T) {
	policy := DefaultPolicy(time.Second)
	policy.Sleep = func(time.Duration) { t.Fatal("must not sleep on permanent error") }

	permanent := &StatusError{StatusCode: 404}
	attempts := 0
	err := policy.Do(context.Background(), func() error {
		attempts++
		return permanent
	}, nil)

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, attempts)
}

func TestPolicy_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := DefaultPolicy(time.Second)
	err := policy.Do(ctx, func() error {
		t.Fatal("op must not run on a dead context")
		return nil
	}, nil)

	require.ErrorIs(t, err, context.Canceled)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"http 429", &StatusError{StatusCode: 429}, true},
		{"http 500", &StatusError{StatusCode: 500}, true},
		{"http 404", &StatusError{StatusCode: 404}, false},
		{"transport", ErrTransport, true},
		{"wrapped transport", errors.Join(errors.New("dial"), ErrTransport), true},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
