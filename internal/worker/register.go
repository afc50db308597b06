// Package worker registers the grading workflow and activities with a
// Temporal worker.
package worker

import (
	sdkworker "go.temporal.io/sdk/worker"

	gradeactivity "github.com/greenbench/comtrade-bench/internal/activity"
	"github.com/greenbench/comtrade-bench/internal/grader"
	"github.com/greenbench/comtrade-bench/internal/workflow"
	baseact "github.com/greenbench/comtrade-bench/pkg/activity"
)

// RegisterAll registers the grading workflow and its activities. Call once
// during worker startup before the worker runs.
func RegisterAll(w sdkworker.Worker, g *grader.Grader) {
	base := baseact.NewBaseActivities()
	activities := gradeactivity.NewActivities(base, g)

	w.RegisterWorkflow(workflow.GradingWorkflow)
	w.RegisterActivity(activities.GradeArtifact)
}
