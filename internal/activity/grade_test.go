package activity

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/greenbench/comtrade-bench/internal/domain"
	"github.com/greenbench/comtrade-bench/internal/grader"
	"github.com/greenbench/comtrade-bench/internal/tasks"
	baseact "github.com/greenbench/comtrade-bench/pkg/activity"
)

func newTestActivities(t *testing.T) *Activities {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	g := grader.New(tasks.NewCatalog(), grader.Options{
		OutputRoot:  t.TempDir(),
		StagingRoot: t.TempDir(),
		Logger:      log,
	})
	return NewActivities(baseact.NewBaseActivities(), g)
}

func TestGradeArtifact_MissingArtifactStillReports(t *testing.T) {
	acts := newTestActivities(t)

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.GradeArtifact)

	val, err := env.ExecuteActivity(acts.GradeArtifact, GradeInput{TaskID: "T1_single_page"})
	require.NoError(t, err)

	var report domain.Report
	require.NoError(t, val.Get(&report))
	assert.Equal(t, "T1_single_page", report.TaskID)
	assert.Equal(t, 0.0, report.ScoreTotal)
	assert.NotEmpty(t, report.Errors)
}

func TestGradeArtifact_UnknownTaskNonRetryable(t *testing.T) {
	acts := newTestActivities(t)

	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(acts.GradeArtifact)

	_, err := env.ExecuteActivity(acts.GradeArtifact, GradeInput{TaskID: "T42_missing"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, tagUnknownTask, appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		nonRetryable bool
		errType      string
	}{
		{"unknown task", domain.ErrUnknownTask, true, tagUnknownTask},
		{"scoring timeout", domain.ErrScoringTimeout, true, tagScoringTimeout},
		{"transient staging failure", errors.New("stage artifact: i/o"), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := classify(tt.err)
			var appErr *temporal.ApplicationError
			if tt.nonRetryable {
				require.True(t, errors.As(out, &appErr))
				assert.Equal(t, tt.errType, appErr.Type())
				assert.True(t, appErr.NonRetryable())
			} else {
				assert.False(t, errors.As(out, &appErr))
				assert.Equal(t, tt.err, out)
			}
		})
	}
}
