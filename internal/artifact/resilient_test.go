package artifact

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbench/comtrade-bench/internal/domain"
)

func TestIsTransientFS(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"bare EDEADLK", syscall.EDEADLK, true},
		{"bare EAGAIN", syscall.EAGAIN, true},
		{
			name: "EDEADLK wrapped in PathError",
			err:  &os.PathError{Op: "open", Path: "data.jsonl", Err: syscall.EDEADLK},
			want: true,
		},
		{"ENOENT is permanent", syscall.ENOENT, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTransientFS(tt.err))
		})
	}
}

func TestWithRetries_TransientThenSuccess(t *testing.T) {
	calls := 0
	err := withRetries(time.Second, func() error {
		calls++
		if calls < 3 {
			return &os.PathError{Op: "read", Path: "x", Err: syscall.EDEADLK}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetries_PermanentErrorNoRetry(t *testing.T) {
	permanent := fmt.Errorf("disk on fire")
	calls := 0
	err := withRetries(time.Second, func() error {
		calls++
		return permanent
	})

	require.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestWithRetries_DeadlineEscalatesToIODeadline(t *testing.T) {
	err := withRetries(time.Millisecond, func() error {
		return &os.PathError{Op: "read", Path: "x", Err: syscall.EDEADLK}
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIODeadline)
}

func TestReadFile(t *testing.T) {
	path := t.TempDir() + "/f.txt"
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	data, err := ReadFile(path, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = ReadFile(path+".missing", time.Second)
	assert.True(t, os.IsNotExist(err))
}
