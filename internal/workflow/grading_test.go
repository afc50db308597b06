package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	gradeactivity "github.com/greenbench/comtrade-bench/internal/activity"
	"github.com/greenbench/comtrade-bench/internal/domain"
)

func TestGradingWorkflow_ReturnsReport(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(GradingWorkflow)

	var acts *gradeactivity.Activities
	env.OnActivity(acts.GradeArtifact, mock.Anything, gradeactivity.GradeInput{
		TaskID: "T1_single_page",
	}).Return(&domain.Report{
		TaskID:     "T1_single_page",
		ScoreTotal: 93.5,
	}, nil)

	env.ExecuteWorkflow(GradingWorkflow, GradingRequest{TaskID: "T1_single_page"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report domain.Report
	require.NoError(t, env.GetWorkflowResult(&report))
	assert.Equal(t, "T1_single_page", report.TaskID)
	assert.Equal(t, 93.5, report.ScoreTotal)
	env.AssertExpectations(t)
}

func TestGradingWorkflow_RequiresTaskID(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(GradingWorkflow)

	env.ExecuteWorkflow(GradingWorkflow, GradingRequest{})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Validation", appErr.Type())
}

func TestGradingWorkflow_PropagatesActivityFailure(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(GradingWorkflow)

	var acts *gradeactivity.Activities
	env.OnActivity(acts.GradeArtifact, mock.Anything, mock.Anything).Return(
		nil, temporal.NewNonRetryableApplicationError("unknown task: T42", "UnknownTask", nil))

	env.ExecuteWorkflow(GradingWorkflow, GradingRequest{TaskID: "T42"})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "UnknownTask", appErr.Type())
}
