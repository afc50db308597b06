package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbench/comtrade-bench/internal/domain"
)

func gateInput(completeness, correctness float64) *domain.ScoreResult {
	result := domain.NewScoreResult()
	result.Breakdown[domain.DimCompleteness] = completeness
	result.Breakdown[domain.DimCorrectness] = correctness
	result.Breakdown[domain.DimEfficiency] = 15
	result.Breakdown[domain.DimObservability] = 10
	result.Breakdown[domain.DimRobustness] = 15
	result.Breakdown[domain.DimDataQuality] = 15
	return result
}

func TestApplyGates_NoneFire(t *testing.T) {
	s := NewDefault()
	result := gateInput(15, 30)

	s.applyGates(result)

	assert.Empty(t, result.Gates)
	assert.Equal(t, 15.0, result.Breakdown[domain.DimEfficiency])
	assert.Equal(t, 10.0, result.Breakdown[domain.DimObservability])
}

func TestApplyGates_CorrectnessExactlyAtThreshold(t *testing.T) {
	s := NewDefault()

	// 70% of 30 is the threshold; exactly 21 does not trip the gate.
	result := gateInput(15, 21.0)
	s.applyGates(result)
	assert.Empty(t, result.Gates)
	assert.Equal(t, 15.0, result.Breakdown[domain.DimEfficiency])
	assert.Equal(t, 10.0, result.Breakdown[domain.DimObservability])

	// 69% of max does.
	result = gateInput(15, 20.7)
	s.applyGates(result)
	assert.Equal(t, 7.5, result.Breakdown[domain.DimEfficiency])
	assert.Equal(t, 5.0, result.Breakdown[domain.DimObservability])
	require.Len(t, result.Gates, 2)
	for _, g := range result.Gates {
		assert.Equal(t, "gate_2_correctness", g.Gate)
		assert.Equal(t, g.Before*0.5, g.After)
	}
}

func TestApplyGates_IncompleteZeroesEfficiency(t *testing.T) {
	s := NewDefault()
	result := gateInput(14.9, 30)

	s.applyGates(result)

	assert.Zero(t, result.Breakdown[domain.DimEfficiency])
	require.Len(t, result.Gates, 1)
	assert.Equal(t, "gate_1_completeness", result.Gates[0].Gate)
	assert.Equal(t, 15.0, result.Gates[0].Before)
}

func TestApplyGates_BothFire(t *testing.T) {
	s := NewDefault()
	result := gateInput(10, 12)

	s.applyGates(result)

	// Gate 1 zeroes efficiency; gate 2 then halves the already-zeroed
	// efficiency and the observability score.
	assert.Zero(t, result.Breakdown[domain.DimEfficiency])
	assert.Equal(t, 5.0, result.Breakdown[domain.DimObservability])
	require.Len(t, result.Gates, 3)
	assert.Contains(t, result.Details, "governance_gates")
}
