package domain

import "math"

// Dimension identifies one axis of the gradient score.
type Dimension string

// The six grading dimensions.
const (
	DimCorrectness   Dimension = "correctness"
	DimCompleteness  Dimension = "completeness"
	DimRobustness    Dimension = "robustness"
	DimEfficiency    Dimension = "efficiency"
	DimDataQuality   Dimension = "data_quality"
	DimObservability Dimension = "observability"
)

// Dimension weights. They sum to 100; each weight is also the dimension's
// maximum score.
const (
	CorrectnessWeight   = 30.0
	CompletenessWeight  = 15.0
	RobustnessWeight    = 15.0
	EfficiencyWeight    = 15.0
	DataQualityWeight   = 15.0
	ObservabilityWeight = 10.0
)

// DimensionWeights returns the weight of every dimension.
// Returns a fresh copy to prevent mutation.
func DimensionWeights() map[Dimension]float64 {
	return map[Dimension]float64{
		DimCorrectness:   CorrectnessWeight,
		DimCompleteness:  CompletenessWeight,
		DimRobustness:    RobustnessWeight,
		DimEfficiency:    EfficiencyWeight,
		DimDataQuality:   DataQualityWeight,
		DimObservability: ObservabilityWeight,
	}
}

// GateAudit records one governance-gate application: which gate fired, the
// dimension it reduced, and the before/after values.
type GateAudit struct {
	Gate      string    `json:"gate"`
	Dimension Dimension `json:"dimension"`
	Before    float64   `json:"before"`
	After     float64   `json:"after"`
}

// ScoreResult is the outcome of one grading pass: a total in [0,100], the
// per-dimension breakdown it was summed from, human-readable error strings,
// and free-form diagnostic details. Dimension shortfalls are expressed here,
// never raised as errors.
type ScoreResult struct {
	Total     float64               `json:"total"`
	Breakdown map[Dimension]float64 `json:"breakdown"`
	Errors    []string              `json:"errors"`
	Details   map[string]any        `json:"details"`
	Gates     []GateAudit           `json:"gates,omitempty"`
}

// NewScoreResult returns a result with every dimension zeroed so the
// breakdown always carries all six keys.
func NewScoreResult() *ScoreResult {
	breakdown := make(map[Dimension]float64, 6)
	for dim := range DimensionWeights() {
		breakdown[dim] = 0
	}
	return &ScoreResult{
		Breakdown: breakdown,
		Errors:    []string{},
		Details:   map[string]any{},
	}
}

// AddError appends a human-readable error string to the result payload.
func (r *ScoreResult) AddError(msg string) { r.Errors = append(r.Errors, msg) }

// Finalize computes Total as the sum of the breakdown, rounded to one
// decimal place and clamped to [0,100].
func (r *ScoreResult) Finalize() {
	var sum float64
	for _, v := range r.Breakdown {
		sum += v
	}
	if sum < 0 {
		sum = 0
	}
	if sum > 100 {
		sum = 100
	}
	r.Total = Round1(sum)
}

// Report converts the result into the grading invocation payload for taskID.
func (r *ScoreResult) Report(taskID string) *Report {
	return &Report{
		TaskID:         taskID,
		ScoreTotal:     r.Total,
		ScoreBreakdown: r.Breakdown,
		Errors:         r.Errors,
		Details:        r.Details,
	}
}

// Report is the grading invocation response contract: given a task_id and an
// artifact location, callers receive this payload.
type Report struct {
	TaskID         string                `json:"task_id"`
	ScoreTotal     float64               `json:"score_total"`
	ScoreBreakdown map[Dimension]float64 `json:"score_breakdown"`
	Errors         []string              `json:"errors"`
	Details        map[string]any        `json:"details"`
}

// Round1 rounds to one decimal place.
func Round1(x float64) float64 { return math.Round(x*10) / 10 }

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
