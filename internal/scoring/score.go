package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/greenbench/comtrade-bench/internal/artifact"
	"github.com/greenbench/comtrade-bench/internal/domain"
)

// Sub-score point allocations within each dimension.
const (
	rowAccuracyPoints    = 12.0
	schemaPoints         = 4.0
	queryPoints          = 4.0
	dedupPoints          = 6.0
	declaredActualPoints = 4.0

	totalsMissingPenalty     = 4.0
	totalsIneffectivePenalty = 2.0

	robustnessFull    = 15.0
	robustnessBase    = 11.25
	robustnessPartial = 7.5

	requestPoints   = 12.0
	timeBonusPoints = 3.0

	integrityPoints   = 5.0
	consistencyPoints = 5.0
	plausibilityPoints = 5.0

	conceptPoints   = 1.5
	levelPointsMax  = 2.0
	stopReasonFull  = 2.0
	stopReasonHint  = 1.0
)

// requiredConcepts are the traceable concepts observability looks for in the
// combined log and metadata text.
var requiredConcepts = []string{"task_id", "page", "request", "complete"}

// Scorer grades artifacts against task specs under injectable governance
// constants.
type Scorer struct {
	cfg Config
}

// New returns a Scorer with the given governance configuration.
func New(cfg Config) *Scorer { return &Scorer{cfg: cfg} }

// NewDefault returns a Scorer with DefaultConfig.
func NewDefault() *Scorer { return New(DefaultConfig()) }

// Score computes the six-dimension gradient score for the loaded bundle,
// applies the governance gates, and finalizes the total. It never returns an
// error: every shortfall is score content plus a human-readable error string.
func (s *Scorer) Score(b *artifact.Bundle, spec domain.TaskSpec) *domain.ScoreResult {
	result := domain.NewScoreResult()

	if b.DirMissing {
		result.AddError(fmt.Sprintf("missing output dir: %s", b.Dir))
		result.Finalize()
		return result
	}

	// Missing required files short-circuit to a completeness-only partial
	// score; no further dimension is computed.
	if len(b.MissingFiles) > 0 {
		for _, name := range b.MissingFiles {
			result.AddError(fmt.Sprintf("missing required file: %s", name))
		}
		present := len(domain.RequiredFiles) - len(b.MissingFiles)
		result.Breakdown[domain.DimCompleteness] =
			float64(present) / float64(len(domain.RequiredFiles)) * s.cfg.MissingFilePartialMax
		result.Finalize()
		return result
	}

	if b.MetadataErr != nil {
		result.AddError(fmt.Sprintf("metadata.json is not valid JSON: %v", b.MetadataErr))
		result.Finalize()
		return result
	}

	result.Details["row_count_actual"] = b.RowsTotal
	result.Details["row_count_declared"] = b.Metadata.RowCount
	result.Details["data_sha256"] = b.DataSHA256
	result.Details["metadata_sha256"] = b.MetadataSHA256

	s.scoreCompleteness(b, result)
	s.scoreCorrectness(b, spec, result)
	s.scoreRobustness(b, spec, result)
	s.scoreEfficiency(b, spec, result)
	s.scoreDataQuality(b, result)
	s.scoreObservability(b, result)

	s.applyGates(result)
	result.Finalize()
	return result
}

func (s *Scorer) scoreCompleteness(b *artifact.Bundle, result *domain.ScoreResult) {
	present := 0
	for _, field := range s.cfg.RequiredMetadataFields {
		if b.MetadataHas(field) {
			present++
		} else {
			result.AddError(fmt.Sprintf("metadata.json missing field: %s", field))
		}
	}
	fraction := float64(present) / float64(len(s.cfg.RequiredMetadataFields))
	result.Breakdown[domain.DimCompleteness] = fraction * domain.CompletenessWeight
}

func (s *Scorer) scoreCorrectness(b *artifact.Bundle, spec domain.TaskSpec, result *domain.ScoreResult) {
	var correctness float64

	// Row-count accuracy, or an exact-match bonus when no expected count
	// is configured.
	expected := spec.Constraints.TotalRows
	actual := b.RowsTotal
	if expected > 0 {
		accuracy := 1.0 - math.Abs(float64(actual-expected))/float64(expected)
		accuracy = domain.Clamp(accuracy, 0, 1)
		correctness += accuracy * rowAccuracyPoints
		result.Details["row_accuracy_pct"] = domain.Round1(accuracy * 100)
		if actual != expected {
			result.AddError(fmt.Sprintf("row count: got %d, expected %d (accuracy: %.1f%%)",
				actual, expected, accuracy*100))
		}
	} else if b.Metadata.RowCount == actual {
		correctness += rowAccuracyPoints
	} else {
		result.AddError(fmt.Sprintf("row count mismatch: declared=%d actual=%d", b.Metadata.RowCount, actual))
	}

	// Schema completeness relative to the reference width.
	schemaFraction := math.Min(float64(len(b.Metadata.Schema))/float64(s.cfg.ReferenceSchemaWidth), 1.0)
	correctness += schemaFraction * schemaPoints
	result.Details["schema_completeness_pct"] = domain.Round1(schemaFraction * 100)
	if len(b.Metadata.Schema) < 5 {
		result.AddError(fmt.Sprintf("schema incomplete: %d columns, expected >= 5", len(b.Metadata.Schema)))
	}

	// Query-field match ratio, type-aware.
	expectedQuery := spec.Query.Map()
	matches := 0
	for _, key := range domain.QueryFields {
		if queryValueMatches(expectedQuery[key], b.Metadata.Query[key]) {
			matches++
		}
	}
	correctness += float64(matches) / float64(len(domain.QueryFields)) * queryPoints
	if matches < len(domain.QueryFields) {
		result.AddError(fmt.Sprintf("query mismatch: %d/%d fields correct", matches, len(domain.QueryFields)))
	}

	// Dedup quality: unique/total over the declared key.
	dedupKey := b.Metadata.DedupKey
	if len(dedupKey) >= 3 {
		unique := make(map[string]struct{}, len(b.Rows))
		for _, row := range b.Rows {
			unique[domain.KeyOf(row, dedupKey)] = struct{}{}
		}
		result.Details["dedup_total_rows"] = len(b.Rows)
		result.Details["dedup_unique_rows"] = len(unique)
		if len(b.Rows) > 0 {
			quality := float64(len(unique)) / float64(len(b.Rows))
			correctness += quality * dedupPoints
			result.Details["dedup_quality_pct"] = domain.Round1(quality * 100)
			if dups := len(b.Rows) - len(unique); dups > 0 {
				result.AddError(fmt.Sprintf("found %d duplicates (%.1f%% duplicate rate)", dups, (1-quality)*100))
			}
		} else {
			correctness += dedupPoints
		}
	} else {
		result.AddError("dedup_key invalid; expect list with >= 3 fields")
	}

	// Declared-vs-actual equality.
	if b.Metadata.RowCount == actual {
		correctness += declaredActualPoints
	} else {
		result.AddError(fmt.Sprintf("declared row_count %d does not match actual %d", b.Metadata.RowCount, actual))
	}

	// Totals-trap tasks: missing or ineffective totals handling subtracts
	// fixed penalties rather than zeroing the dimension.
	if spec.TotalsHandlingRequired() {
		th := b.Metadata.TotalsHandling
		switch {
		case th == nil || !th.Enabled:
			result.AddError("totals-trap task requires totals_handling.enabled=true")
			correctness -= totalsMissingPenalty
		case th.RowsDropped < 1:
			result.AddError("totals-trap task: no totals rows dropped")
			correctness -= totalsIneffectivePenalty
		}
	}

	result.Breakdown[domain.DimCorrectness] = domain.Clamp(correctness, 0, domain.CorrectnessWeight)
}

func queryValueMatches(expected, got any) bool {
	switch exp := expected.(type) {
	case nil:
		return true
	case string:
		g, ok := got.(string)
		return ok && g == exp
	case int:
		if _, isStr := got.(string); isStr {
			return false
		}
		f, ok := domain.Numeric(got)
		return ok && domain.IsIntegral(got) && int(f) == exp
	default:
		return fmt.Sprint(expected) == fmt.Sprint(got)
	}
}

// scoreRobustness grades log evidence of fault handling, mode-conditioned.
func (s *Scorer) scoreRobustness(b *artifact.Bundle, spec domain.TaskSpec, result *domain.ScoreResult) {
	logText := strings.ToLower(b.LogText)
	var robustness float64

	switch spec.FaultInjection.Mode {
	case domain.FaultRateLimit:
		has429 := strings.Contains(logText, "429")
		hasRetry := strings.Contains(logText, "retry") || strings.Contains(logText, "backoff")
		hasExponential := strings.Contains(logText, "exponential") || strings.Contains(logText, "backoff")
		switch {
		case has429 && hasRetry && hasExponential:
			robustness = robustnessFull
		case has429 && hasRetry:
			robustness = robustnessBase
		case hasRetry:
			robustness = robustnessPartial
		default:
			result.AddError("no evidence of 429 handling in run.log")
		}
	case domain.FaultServerError:
		has500 := strings.Contains(logText, "500")
		hasRetry := strings.Contains(logText, "retry")
		hasLimit := strings.Contains(logText, "max") || strings.Contains(logText, "limit")
		switch {
		case has500 && hasRetry && hasLimit:
			robustness = robustnessFull
		case has500 && hasRetry:
			robustness = robustnessBase
		case hasRetry:
			robustness = robustnessPartial
		default:
			result.AddError("no evidence of 500 handling in run.log")
		}
	default:
		// Non-fault tasks score by narrative depth tiers.
		lines := nonBlankLines(logText)
		switch {
		case lines >= 5:
			robustness = robustnessFull
		case lines >= 3:
			robustness = robustnessBase
		case len(strings.TrimSpace(logText)) > domain.MinLogChars:
			robustness = robustnessPartial
		}
	}

	result.Breakdown[domain.DimRobustness] = robustness
}

func (s *Scorer) scoreEfficiency(b *artifact.Bundle, spec domain.TaskSpec, result *domain.ScoreResult) {
	requestCount := declaredRequestCount(b)
	if requestCount == 0 {
		// Fall back to counting retrieval tokens in the log.
		logText := strings.ToLower(b.LogText)
		requestCount = strings.Count(logText, "request") +
			strings.Count(logText, "fetch") +
			strings.Count(logText, "page")
	}

	var efficiency float64
	baseline := s.cfg.baselineFor(spec)
	result.Details["request_baseline"] = baseline

	if requestCount > 0 {
		result.Details["request_count"] = requestCount
		if requestCount <= baseline {
			efficiency += requestPoints
		} else {
			overage := float64(requestCount-baseline) / float64(baseline)
			efficiency += domain.Clamp(1.0-overage, 0, 1) * requestPoints
			result.Details["request_overage_pct"] = domain.Round1(overage * 100)
		}
	} else {
		// Not measurable; default to full request credit.
		efficiency += requestPoints
	}

	// Fixed time sub-score, withheld only past the threshold.
	if b.Metadata.ExecutionTime <= s.cfg.TimeThresholdSeconds {
		efficiency += timeBonusPoints
	} else {
		result.Details["execution_time_seconds"] = b.Metadata.ExecutionTime
		result.AddError(fmt.Sprintf("execution time %.1fs exceeds %.0fs threshold",
			b.Metadata.ExecutionTime, s.cfg.TimeThresholdSeconds))
	}

	result.Breakdown[domain.DimEfficiency] = domain.Clamp(efficiency, 0, domain.EfficiencyWeight)
}

func declaredRequestCount(b *artifact.Bundle) int {
	if b.MetadataHas("request_count") && b.Metadata.RequestCount > 0 {
		return b.Metadata.RequestCount
	}
	if rs := b.Metadata.RequestStats; rs != nil {
		return rs.RequestsTotal
	}
	return 0
}

func (s *Scorer) scoreDataQuality(b *artifact.Bundle, result *domain.ScoreResult) {
	if b.RowsTotal == 0 {
		result.AddError("no data rows to assess for quality")
		return
	}

	var quality float64

	// Content integrity: rows carrying at least half the declared schema.
	schema := b.Metadata.Schema
	intact := 0
	for _, row := range b.Rows {
		if len(schema) == 0 {
			intact++
			continue
		}
		present := 0
		for _, field := range schema {
			if _, ok := row[field]; ok {
				present++
			}
		}
		if float64(present) >= float64(len(schema))*0.5 {
			intact++
		}
	}
	integrity := float64(intact) / float64(b.RowsTotal)
	quality += integrity * integrityPoints
	result.Details["data_integrity_pct"] = domain.Round1(integrity * 100)

	// Type consistency: fraction of fields whose observed value types are
	// uniform across all rows, nulls ignored.
	kinds := map[string]map[string]struct{}{}
	for _, row := range b.Rows {
		for field, v := range row {
			if v == nil {
				continue
			}
			if kinds[field] == nil {
				kinds[field] = map[string]struct{}{}
			}
			kinds[field][valueKind(v)] = struct{}{}
		}
	}
	if len(kinds) > 0 {
		consistent := 0
		for _, observed := range kinds {
			if len(observed) == 1 {
				consistent++
			}
		}
		ratio := float64(consistent) / float64(len(kinds))
		quality += ratio * consistencyPoints
		result.Details["type_consistency_pct"] = domain.Round1(ratio * 100)
	}

	// Value-range plausibility.
	plausible := 0
	for _, row := range b.Rows {
		if rowPlausible(row) {
			plausible++
		}
	}
	ratio := float64(plausible) / float64(b.RowsTotal)
	quality += ratio * plausibilityPoints
	result.Details["value_plausibility_pct"] = domain.Round1(ratio * 100)

	result.Breakdown[domain.DimDataQuality] = domain.Clamp(quality, 0, domain.DataQualityWeight)
}

func valueKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		if _, ok := domain.Numeric(v); ok {
			return "number"
		}
		return "other"
	}
}

func rowPlausible(row domain.Row) bool {
	if year, ok := domain.Numeric(row[domain.FieldYear]); ok {
		if year < 1900 || year > 2100 {
			return false
		}
	}
	for _, field := range domain.NonNegativeFields {
		if v, ok := domain.Numeric(row[field]); ok && v < 0 {
			return false
		}
	}
	return true
}

func (s *Scorer) scoreObservability(b *artifact.Bundle, result *domain.ScoreResult) {
	metaText := ""
	if raw, err := json.Marshal(b.MetadataRaw); err == nil {
		metaText = string(raw)
	}
	combined := strings.ToLower(b.LogText + "\n" + metaText)

	var observability float64
	var missing []string
	for _, concept := range requiredConcepts {
		if strings.Contains(combined, concept) {
			observability += conceptPoints
		} else {
			missing = append(missing, concept)
		}
	}
	if len(missing) > 0 {
		result.Details["missing_trace_concepts"] = missing
	}

	// Log-level diversity.
	logText := strings.ToLower(b.LogText)
	levels := 0
	for _, level := range []string{"info", "warn", "error"} {
		if strings.Contains(logText, level) {
			levels++
		}
	}
	observability += float64(levels) / 3.0 * levelPointsMax

	// Explicit stop-reason indicator.
	switch {
	case b.Metadata.PaginationStats != nil && b.Metadata.PaginationStats.StopReason != "":
		observability += stopReasonFull
	case strings.Contains(logText, "stop"):
		observability += stopReasonHint
	}

	result.Breakdown[domain.DimObservability] = domain.Clamp(observability, 0, domain.ObservabilityWeight)
}

func nonBlankLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
