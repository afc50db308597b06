package tasks

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbench/comtrade-bench/internal/domain"
)

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()

	run := s.Create("T1_single_page", "/tmp/out/T1")
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunSubmitted, run.Status)
	assert.Equal(t, "T1_single_page", run.TaskID)
	assert.Equal(t, "/tmp/out/T1", run.OutputDir)
	assert.False(t, run.Terminal())
	assert.Nil(t, run.FinishedAt)

	got, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)

	// Returned runs are copies; mutating them must not touch the store.
	got.Status = RunCanceled
	again, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunSubmitted, again.Status)
}

func TestMemoryStore_GetUnknown(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestMemoryStore_Complete(t *testing.T) {
	s := NewMemoryStore()
	run := s.Create("T2_multi_page", "out")

	report := &domain.Report{TaskID: "T2_multi_page", ScoreTotal: 87.5}
	done, err := s.Complete(run.ID, report)
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, done.Status)
	assert.True(t, done.Terminal())
	require.NotNil(t, done.FinishedAt)
	require.NotNil(t, done.Report)
	assert.Equal(t, 87.5, done.Report.ScoreTotal)
}

func TestMemoryStore_Fail(t *testing.T) {
	s := NewMemoryStore()
	run := s.Create("T3_rate_limit", "out")

	failed, err := s.Fail(run.ID, fmt.Errorf("%w: T3_rate_limit", domain.ErrUnknownTask))
	require.NoError(t, err)
	assert.Equal(t, RunFailed, failed.Status)
	assert.Contains(t, failed.Error, "unknown task")
	require.NotNil(t, failed.FinishedAt)
}

func TestMemoryStore_TerminalStatusSticky(t *testing.T) {
	s := NewMemoryStore()
	run := s.Create("T1_single_page", "out")

	_, err := s.SetStatus(run.ID, RunCanceled)
	require.NoError(t, err)

	// A terminal run ignores further transitions.
	after, err := s.SetStatus(run.ID, RunWorking)
	require.NoError(t, err)
	assert.Equal(t, RunCanceled, after.Status)
	require.NotNil(t, after.FinishedAt)
}

func TestMemoryStore_SetStatusWorking(t *testing.T) {
	s := NewMemoryStore()
	run := s.Create("T1_single_page", "out")

	working, err := s.SetStatus(run.ID, RunWorking)
	require.NoError(t, err)
	assert.Equal(t, RunWorking, working.Status)
	assert.Nil(t, working.FinishedAt)
	assert.False(t, working.UpdatedAt.Before(run.UpdatedAt))
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	first := s.Create("T1_single_page", "a")
	time.Sleep(2 * time.Millisecond)
	second := s.Create("T2_multi_page", "b")

	runs := s.List()
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
}
