package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.MockURL)
	assert.Equal(t, "_purple_output", cfg.OutputRoot)
	assert.Equal(t, "/tmp/purple_output_cache", cfg.StagingRoot)
	assert.Equal(t, 8*time.Second, cfg.ScoreTimeout)
	assert.Equal(t, 8*time.Second, cfg.StageTimeout)
	assert.Empty(t, cfg.TaskFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost:7233", cfg.TemporalHostPort)
	assert.Equal(t, "grading", cfg.TaskQueue)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("SCORE_TIMEOUT", "250ms")
	t.Setenv("TASK_FILE", "/etc/bench/tasks.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.ScoreTimeout)
	assert.Equal(t, "/etc/bench/tasks.json", cfg.TaskFile)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("SCORE_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}
