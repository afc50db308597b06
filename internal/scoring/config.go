// Package scoring computes the six-dimension gradient score for a validated
// or best-effort-loaded artifact and applies the cross-dimension governance
// gates. Dimension shortfalls are expressed in the score and its error
// strings, never as Go errors.
package scoring

import "github.com/greenbench/comtrade-bench/internal/domain"

// Config carries the governance constants: baselines and thresholds that the
// observed grading behavior treats as task- or deployment-specific rather
// than universal. They are injected so deployments can tune them without
// code changes.
type Config struct {
	// RequiredMetadataFields drive the completeness dimension and gate 1.
	RequiredMetadataFields []string

	// ReferenceSchemaWidth is the full schema width correctness measures
	// schema completeness against.
	ReferenceSchemaWidth int

	// MissingFilePartialMax caps the completeness-only partial score
	// awarded when required files are missing.
	MissingFilePartialMax float64

	// CorrectnessGateRatio is the fraction of the correctness maximum
	// below which gate 2 halves efficiency and observability.
	CorrectnessGateRatio float64

	// TimeThresholdSeconds is the declared execution time above which the
	// fixed time sub-score is withheld. Thresholded, not continuous, so
	// normal wall-clock jitter is never penalized.
	TimeThresholdSeconds float64

	// RequestBaselines overrides the per-task request baseline by task ID.
	// Tasks without an override use TaskSpec.RequestBaseline().
	RequestBaselines map[string]int
}

// DefaultConfig returns the governance constants observed in the benchmark
// contract.
func DefaultConfig() Config {
	return Config{
		RequiredMetadataFields: []string{
			"task_id", "query", "row_count", "schema", "dedup_key",
			"sorted_by", "pagination_stats", "request_stats",
			"retry_policy", "totals_handling",
		},
		ReferenceSchemaWidth:  9,
		MissingFilePartialMax: 10.0,
		CorrectnessGateRatio:  0.70,
		TimeThresholdSeconds:  60.0,
	}
}

// baselineFor resolves the task-specific request baseline.
func (c Config) baselineFor(spec domain.TaskSpec) int {
	if b, ok := c.RequestBaselines[spec.TaskID]; ok && b > 0 {
		return b
	}
	return spec.RequestBaseline()
}
