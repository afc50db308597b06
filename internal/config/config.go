// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config is the full service configuration. All fields have working defaults
// so the binary runs locally with no environment at all.
type Config struct {
	// Addr is the listen address of the HTTP service.
	Addr string `env:"ADDR" envDefault:":8080"`

	// MockURL is the base URL of the record source used for retrieval runs.
	MockURL string `env:"MOCK_URL" envDefault:"http://localhost:8000"`

	// OutputRoot is where agents leave artifact directories, one per task.
	OutputRoot string `env:"PURPLE_OUTPUT_ROOT" envDefault:"_purple_output"`

	// StagingRoot is the isolated directory artifacts are copied into
	// before grading.
	StagingRoot string `env:"STAGING_ROOT" envDefault:"/tmp/purple_output_cache"`

	// ScoreTimeout bounds one scoring pass.
	ScoreTimeout time.Duration `env:"SCORE_TIMEOUT" envDefault:"8s"`

	// StageTimeout bounds artifact staging I/O.
	StageTimeout time.Duration `env:"STAGE_TIMEOUT" envDefault:"8s"`

	// TaskFile optionally layers extra task specs over the built-in catalog.
	TaskFile string `env:"TASK_FILE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Temporal worker settings.
	TemporalHostPort  string `env:"TEMPORAL_HOST_PORT" envDefault:"localhost:7233"`
	TemporalNamespace string `env:"TEMPORAL_NAMESPACE" envDefault:"default"`
	TaskQueue         string `env:"TASK_QUEUE" envDefault:"grading"`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
