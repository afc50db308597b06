package worker

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/greenbench/comtrade-bench/internal/config"
	"github.com/greenbench/comtrade-bench/internal/grader"
	"github.com/greenbench/comtrade-bench/internal/retrieval"
	"github.com/greenbench/comtrade-bench/internal/tasks"
)

// InitializeGrader builds the grader a worker serves from the service
// configuration: the task catalog (built-ins plus the optional task file) and
// the grading options.
func InitializeGrader(cfg *config.Config, logger logrus.FieldLogger) (*grader.Grader, error) {
	catalog, err := tasks.LoadCatalog(cfg.TaskFile)
	if err != nil {
		return nil, fmt.Errorf("load task catalog: %w", err)
	}

	return grader.New(catalog, grader.Options{
		OutputRoot:   cfg.OutputRoot,
		StagingRoot:  cfg.StagingRoot,
		ScoreTimeout: cfg.ScoreTimeout,
		StageTimeout: cfg.StageTimeout,
		Source:       retrieval.NewHTTPSource(cfg.MockURL, logger),
		Logger:       logger,
	}), nil
}
