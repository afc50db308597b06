// Package workflow orchestrates grading runs as Temporal workflows. All
// workflow code uses workflow-safe APIs only; the heavy lifting happens in
// activities.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	gradeactivity "github.com/greenbench/comtrade-bench/internal/activity"
	"github.com/greenbench/comtrade-bench/internal/domain"
)

// GradingRequest starts one grading run.
type GradingRequest struct {
	TaskID    string `json:"task_id"`
	OutputDir string `json:"output_dir,omitempty"`

	// TimeoutSeconds bounds the GradeArtifact activity; it must exceed the
	// grader's internal scoring timeout so the activity can report
	// ErrScoringTimeout itself. Zero selects the default.
	TimeoutSeconds int `json:"timeout_seconds,omitempty"`
}

const defaultGradeTimeout = 30 * time.Second

// GradingWorkflow grades one artifact and returns the report. Grading is
// deterministic given the artifact, so a failed attempt is never retried.
func GradingWorkflow(ctx workflow.Context, req GradingRequest) (*domain.Report, error) {
	if req.TaskID == "" {
		return nil, temporal.NewNonRetryableApplicationError(
			"grading request requires task_id", "Validation", nil)
	}

	timeout := defaultGradeTimeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: timeout,
		HeartbeatTimeout:    timeout,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var activities *gradeactivity.Activities
	var report domain.Report
	err := workflow.ExecuteActivity(ctx, activities.GradeArtifact, gradeactivity.GradeInput{
		TaskID:    req.TaskID,
		OutputDir: req.OutputDir,
	}).Get(ctx, &report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}
