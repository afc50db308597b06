// Package grader orchestrates one grading invocation: resolve the task spec,
// stage the artifact into an isolated directory, load it leniently, and score
// it on a dedicated worker with a wall-clock bound.
package grader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/greenbench/comtrade-bench/internal/artifact"
	"github.com/greenbench/comtrade-bench/internal/domain"
	"github.com/greenbench/comtrade-bench/internal/retrieval"
	"github.com/greenbench/comtrade-bench/internal/scoring"
	"github.com/greenbench/comtrade-bench/internal/tasks"
)

// scorer abstracts the scoring engine so tests can substitute a slow one.
type scorer interface {
	Score(b *artifact.Bundle, spec domain.TaskSpec) *domain.ScoreResult
}

// Options configures a Grader.
type Options struct {
	// OutputRoot is where agents leave artifact directories; the task id is
	// the directory name when the caller does not pass an explicit path.
	OutputRoot string

	// StagingRoot is the isolated directory artifacts are copied into
	// before any file is read for grading.
	StagingRoot string

	// ScoreTimeout bounds one scoring pass; exceeding it yields
	// domain.ErrScoringTimeout.
	ScoreTimeout time.Duration

	// StageTimeout bounds the staging copy's transient-failure retries.
	StageTimeout time.Duration

	// Source, when set, receives the task spec via Configure before each
	// grading pass so the record source serves that task's data and
	// faults. Nil skips configuration.
	Source retrieval.Source

	Logger logrus.FieldLogger
}

// Grader grades artifacts against the task catalog.
type Grader struct {
	catalog *tasks.Catalog
	scorer  scorer
	opts    Options
	log     logrus.FieldLogger
}

// New returns a Grader using the default scoring configuration.
func New(catalog *tasks.Catalog, opts Options) *Grader {
	return NewWithScorer(catalog, scoring.NewDefault(), opts)
}

// NewWithScorer returns a Grader with a caller-supplied scoring engine.
func NewWithScorer(catalog *tasks.Catalog, s scorer, opts Options) *Grader {
	if opts.ScoreTimeout <= 0 {
		opts.ScoreTimeout = 8 * time.Second
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = 8 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Grader{catalog: catalog, scorer: s, opts: opts, log: log}
}

// Spec resolves taskID against the catalog.
func (g *Grader) Spec(taskID string) (domain.TaskSpec, error) {
	return g.catalog.Get(taskID)
}

// OutputDirFor resolves a directory name under the configured output root.
func (g *Grader) OutputDirFor(name string) string {
	return filepath.Join(g.opts.OutputRoot, name)
}

// Grade scores the artifact for taskID. outputDir may be empty, in which case
// the artifact is expected under OutputRoot/taskID. The artifact is staged
// into StagingRoot before reading so a concurrently rewriting agent cannot
// change files mid-grade.
func (g *Grader) Grade(ctx context.Context, taskID, outputDir string) (*domain.Report, error) {
	spec, err := g.catalog.Get(taskID)
	if err != nil {
		return nil, err
	}

	if g.opts.Source != nil {
		if err := g.opts.Source.Configure(ctx, spec); err != nil {
			return nil, fmt.Errorf("configure source for %s: %w", taskID, err)
		}
	}

	if outputDir == "" {
		outputDir = filepath.Join(g.opts.OutputRoot, taskID)
	}

	dir := outputDir
	if _, statErr := os.Stat(outputDir); statErr == nil {
		staged := filepath.Join(g.opts.StagingRoot, taskID)
		if stageErr := artifact.Stage(outputDir, staged, g.opts.StageTimeout); stageErr != nil {
			return nil, fmt.Errorf("stage artifact %s: %w", outputDir, stageErr)
		}
		dir = staged
	}

	bundle, err := artifact.LoadBundle(dir, g.opts.StageTimeout)
	if err != nil {
		return nil, fmt.Errorf("load artifact %s: %w", dir, err)
	}

	result, err := g.scoreWithTimeout(ctx, bundle, spec)
	if err != nil {
		return nil, err
	}

	g.log.WithFields(logrus.Fields{
		"task_id": taskID,
		"total":   result.Total,
		"errors":  len(result.Errors),
	}).Info("grading complete")

	return result.Report(taskID), nil
}

// scoreWithTimeout runs the scorer on its own goroutine so a pathological
// artifact cannot stall the caller past ScoreTimeout.
func (g *Grader) scoreWithTimeout(ctx context.Context, b *artifact.Bundle, spec domain.TaskSpec) (*domain.ScoreResult, error) {
	done := make(chan *domain.ScoreResult, 1)
	go func() {
		done <- g.scorer.Score(b, spec)
	}()

	timer := time.NewTimer(g.opts.ScoreTimeout)
	defer timer.Stop()

	select {
	case result := <-done:
		return result, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: scoring exceeded %s for task %s",
			domain.ErrScoringTimeout, g.opts.ScoreTimeout, spec.TaskID)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
