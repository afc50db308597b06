package scoring

import (
	"fmt"

	"github.com/greenbench/comtrade-bench/internal/domain"
)

// Gate names as they appear in audits and details.
const (
	gateCompleteness = "gate_1_completeness"
	gateCorrectness  = "gate_2_correctness"
)

// applyGates enforces the cross-dimension governance rules after the raw
// per-dimension pass. Each application is audited with before/after values.
// Both gates are conditioned on the raw dimension values, so the order they
// run in cannot change the outcome.
func (s *Scorer) applyGates(result *domain.ScoreResult) {
	completeness := result.Breakdown[domain.DimCompleteness]
	correctness := result.Breakdown[domain.DimCorrectness]

	// Gate 1: an incomplete artifact earns no efficiency credit.
	if completeness < domain.CompletenessWeight {
		before := result.Breakdown[domain.DimEfficiency]
		result.Breakdown[domain.DimEfficiency] = 0
		result.Gates = append(result.Gates, domain.GateAudit{
			Gate:      gateCompleteness,
			Dimension: domain.DimEfficiency,
			Before:    before,
			After:     0,
		})
		result.AddError(fmt.Sprintf("completeness %.1f below %.0f: efficiency zeroed",
			completeness, domain.CompletenessWeight))
	}

	// Gate 2: low correctness halves efficiency and observability.
	threshold := s.cfg.CorrectnessGateRatio * domain.CorrectnessWeight
	if correctness < threshold {
		for _, dim := range []domain.Dimension{domain.DimEfficiency, domain.DimObservability} {
			before := result.Breakdown[dim]
			result.Breakdown[dim] = before * 0.5
			result.Gates = append(result.Gates, domain.GateAudit{
				Gate:      gateCorrectness,
				Dimension: dim,
				Before:    before,
				After:     before * 0.5,
			})
		}
		result.AddError(fmt.Sprintf("correctness %.1f below gate threshold %.1f: efficiency and observability halved",
			correctness, threshold))
	}

	if len(result.Gates) > 0 {
		result.Details["governance_gates"] = result.Gates
	}
}
