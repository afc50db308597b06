// Package activity implements the Temporal activities of the grading
// pipeline. Error classification follows one rule: unknown tasks and scoring
// timeouts are non-retryable (retrying cannot change the outcome), while
// staging I/O failures are left retryable for Temporal's retry policy.
package activity

import (
	"context"
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/greenbench/comtrade-bench/internal/domain"
	"github.com/greenbench/comtrade-bench/internal/grader"
	baseact "github.com/greenbench/comtrade-bench/pkg/activity"
)

// Error tags attached to non-retryable application errors.
const (
	tagUnknownTask    = "UnknownTask"
	tagScoringTimeout = "ScoringTimeout"
)

// GradeInput is the GradeArtifact activity request.
type GradeInput struct {
	TaskID string `json:"task_id"`

	// OutputDir overrides the default artifact location (output root plus
	// task id) when set.
	OutputDir string `json:"output_dir,omitempty"`
}

// Activities hosts the grading activities with shared infrastructure.
type Activities struct {
	baseact.BaseActivities

	grader *grader.Grader
}

// NewActivities returns grading activities backed by g.
func NewActivities(base baseact.BaseActivities, g *grader.Grader) *Activities {
	return &Activities{BaseActivities: base, grader: g}
}

// GradeArtifact stages, loads, and scores one artifact and returns the
// grading report.
func (a *Activities) GradeArtifact(ctx context.Context, in GradeInput) (*domain.Report, error) {
	wfCtx := a.GetWorkflowContext(ctx)
	baseact.SafeLog(ctx, "grading artifact",
		"task_id", in.TaskID,
		"workflow_id", wfCtx.WorkflowID,
	)
	a.RecordHeartbeat(ctx, "staging")

	report, err := a.grader.Grade(ctx, in.TaskID, in.OutputDir)
	if err != nil {
		baseact.SafeLogError(ctx, "grading failed", "task_id", in.TaskID, "error", err)
		return nil, classify(err)
	}

	baseact.SafeLog(ctx, "grading complete", "task_id", in.TaskID, "total", report.ScoreTotal)
	return report, nil
}

// classify converts grading failures into Temporal errors. Deterministic
// failures become non-retryable application errors.
func classify(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnknownTask):
		return temporal.NewNonRetryableApplicationError(err.Error(), tagUnknownTask, err)
	case errors.Is(err, domain.ErrScoringTimeout):
		return temporal.NewNonRetryableApplicationError(err.Error(), tagScoringTimeout, err)
	default:
		return err
	}
}
