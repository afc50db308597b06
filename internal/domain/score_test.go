package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionWeights_SumTo100(t *testing.T) {
	var sum float64
	for _, w := range DimensionWeights() {
		sum += w
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestNewScoreResult_AllDimensionsPresent(t *testing.T) {
	r := NewScoreResult()

	require.Len(t, r.Breakdown, 6)
	for dim := range DimensionWeights() {
		v, ok := r.Breakdown[dim]
		assert.True(t, ok, "missing dimension %s", dim)
		assert.Zero(t, v)
	}
	assert.NotNil(t, r.Errors)
	assert.NotNil(t, r.Details)
}

func TestScoreResult_Finalize(t *testing.T) {
	tests := []struct {
		name      string
		breakdown map[Dimension]float64
		want      float64
	}{
		{
			name: "sums and rounds to one decimal",
			breakdown: map[Dimension]float64{
				DimCorrectness:  29.97,
				DimCompleteness: 15,
				DimRobustness:   11.25,
			},
			want: 56.2,
		},
		{
			name: "clamps above 100",
			breakdown: map[Dimension]float64{
				DimCorrectness: 80,
				DimEfficiency:  40,
			},
			want: 100,
		},
		{
			name: "clamps below 0",
			breakdown: map[Dimension]float64{
				DimCorrectness: -10,
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewScoreResult()
			for dim, v := range tt.breakdown {
				r.Breakdown[dim] = v
			}
			r.Finalize()
			assert.Equal(t, tt.want, r.Total)
		})
	}
}

func TestScoreResult_Report(t *testing.T) {
	r := NewScoreResult()
	r.Breakdown[DimCorrectness] = 30
	r.AddError("row count: got 49, expected 50")
	r.Details["row_count_actual"] = 49
	r.Finalize()

	report := r.Report("T1_single_page")

	assert.Equal(t, "T1_single_page", report.TaskID)
	assert.Equal(t, r.Total, report.ScoreTotal)
	assert.Equal(t, r.Breakdown, report.ScoreBreakdown)
	assert.Equal(t, []string{"row count: got 49, expected 50"}, report.Errors)
	assert.Equal(t, 49, report.Details["row_count_actual"])
}

func TestValidationError_Rendering(t *testing.T) {
	err := NewValidationError(CodeRowCountMismatch, "declared 10, found 9")
	assert.Equal(t, "[E004] declared 10, found 9", err.Error())
	assert.Equal(t, CodeRowCountMismatch, err.Code)
}
