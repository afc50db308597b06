// Package judge parses and structurally validates an artifact directory
// against the file contract. Validation is an explicit pipeline of stages —
// directory, files, metadata, per-record schema, cross-checks, log evidence —
// each of which can terminate the run with a coded error; validation never
// resumes after a failure. Errors carry the stable external codes E001-E008.
package judge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/greenbench/comtrade-bench/internal/artifact"
	"github.com/greenbench/comtrade-bench/internal/domain"
)

// Judge validates artifacts. The zero value is not usable; construct with New.
type Judge struct {
	ioMaxElapsed time.Duration
}

// New returns a Judge whose file reads retry transient errors for up to
// ioMaxElapsed (zero selects the default cap).
func New(ioMaxElapsed time.Duration) *Judge {
	if ioMaxElapsed <= 0 {
		ioMaxElapsed = artifact.DefaultIOMaxElapsed
	}
	return &Judge{ioMaxElapsed: ioMaxElapsed}
}

// Validate checks the artifact at dir against the contract and the task's
// expected query and fault mode. On success it returns the parsed artifact;
// on failure a coded error identifying the first violated stage.
func (j *Judge) Validate(dir string, spec domain.TaskSpec) (*domain.Artifact, *domain.ValidationError) {
	if verr := checkDirectory(dir); verr != nil {
		return nil, verr
	}
	if verr := checkRequiredFiles(dir); verr != nil {
		return nil, verr
	}

	art := &domain.Artifact{Dir: dir}
	if verr := j.loadMetadata(dir, art); verr != nil {
		return nil, verr
	}
	if verr := j.loadRows(dir, art); verr != nil {
		return nil, verr
	}
	for i, row := range art.Rows {
		if verr := checkRecord(row, i); verr != nil {
			return nil, verr
		}
	}
	if verr := checkRowCount(art); verr != nil {
		return nil, verr
	}
	if verr := checkSchema(art); verr != nil {
		return nil, verr
	}
	if verr := checkQuery(art, spec); verr != nil {
		return nil, verr
	}
	dedupKey, verr := checkDedupKey(art)
	if verr != nil {
		return nil, verr
	}
	if verr := checkNoDuplicates(art.Rows, dedupKey); verr != nil {
		return nil, verr
	}
	if spec.TotalsHandlingRequired() {
		if verr := checkNoTotalsRows(art.Rows); verr != nil {
			return nil, verr
		}
	}
	if verr := j.checkLogEvidence(dir, spec, art); verr != nil {
		return nil, verr
	}
	return art, nil
}

func checkDirectory(dir string) *domain.ValidationError {
	info, err := os.Stat(dir)
	if err != nil {
		return domain.NewValidationError(domain.CodeMissingDir, "missing output directory: %s", dir)
	}
	if !info.IsDir() {
		return domain.NewValidationError(domain.CodeMissingDir, "path is not a directory: %s", dir)
	}
	return nil
}

func checkRequiredFiles(dir string) *domain.ValidationError {
	for _, name := range domain.RequiredFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return domain.NewValidationError(domain.CodeMissingFile, "missing required file: %s", name)
		}
	}
	return nil
}

func (j *Judge) loadMetadata(dir string, art *domain.Artifact) *domain.ValidationError {
	data, err := artifact.ReadFile(filepath.Join(dir, domain.MetadataFileName), j.ioMaxElapsed)
	if err != nil {
		return domain.NewValidationError(domain.CodeInvalidJSON, "metadata could not be read: %v", err)
	}

	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return domain.NewValidationError(domain.CodeInvalidJSON, "invalid JSON in metadata: %v", err)
	}
	art.MetadataRaw = raw
	// Unknown fields ignored by contract; the typed view only needs the
	// fields the cross-checks consume.
	_ = json.Unmarshal(data, &art.Metadata)
	return nil
}

func (j *Judge) loadRows(dir string, art *domain.Artifact) *domain.ValidationError {
	data, err := artifact.ReadFile(filepath.Join(dir, domain.DataFileName), j.ioMaxElapsed)
	if err != nil {
		return domain.NewValidationError(domain.CodeInvalidJSON, "data file could not be read: %v", err)
	}
	for lineNum, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		var row domain.Row
		if err := dec.Decode(&row); err != nil {
			return domain.NewValidationError(domain.CodeInvalidJSON,
				"invalid JSON in %s:%d: %v", domain.DataFileName, lineNum+1, err)
		}
		art.Rows = append(art.Rows, row)
	}
	return nil
}

// checkRecord enforces mandatory fields, types, and range rules on one row.
func checkRecord(row domain.Row, idx int) *domain.ValidationError {
	for _, field := range domain.MandatoryRecordFields {
		v, ok := row[field]
		if !ok {
			return domain.NewValidationError(domain.CodeInvalidJSON,
				"record %d: missing mandatory field %q", idx, field)
		}
		switch field {
		case domain.FieldYear, domain.FieldTradeValue, domain.FieldNetWeight, domain.FieldQty:
			if !domain.IsIntegral(v) {
				return domain.NewValidationError(domain.CodeInvalidJSON,
					"record %d: field %q must be an integer, got %v", idx, field, v)
			}
		default:
			if _, isStr := v.(string); !isStr {
				return domain.NewValidationError(domain.CodeInvalidJSON,
					"record %d: field %q must be a string, got %T", idx, field, v)
			}
		}
	}

	for _, field := range domain.NonNegativeFields {
		if f, _ := domain.Numeric(row[field]); f < 0 {
			return domain.NewValidationError(domain.CodeInvalidJSON,
				"record %d: field %q must be non-negative, got %v", idx, field, row[field])
		}
	}

	if flow, _ := row[domain.FieldFlow].(string); flow != "M" && flow != "X" {
		return domain.NewValidationError(domain.CodeInvalidJSON,
			"record %d: field %q must be \"M\" or \"X\", got %q", idx, domain.FieldFlow, flow)
	}
	return nil
}

func checkRowCount(art *domain.Artifact) *domain.ValidationError {
	declared, ok := art.MetadataRaw["row_count"]
	if !ok {
		return domain.NewValidationError(domain.CodeRowCountMismatch, "metadata missing required field row_count")
	}
	if !domain.IsIntegral(declared) {
		return domain.NewValidationError(domain.CodeRowCountMismatch, "row_count must be an integer, got %v", declared)
	}
	if art.Metadata.RowCount != len(art.Rows) {
		return domain.NewValidationError(domain.CodeRowCountMismatch,
			"row count mismatch: metadata declares %d, actual %d", art.Metadata.RowCount, len(art.Rows))
	}
	return nil
}

func checkSchema(art *domain.Artifact) *domain.ValidationError {
	if _, ok := art.MetadataRaw["schema"]; !ok {
		return domain.NewValidationError(domain.CodeSchemaTooSmall, "metadata missing required field schema")
	}
	schema := art.Metadata.Schema
	if len(schema) < 5 {
		return domain.NewValidationError(domain.CodeSchemaTooSmall,
			"schema too small: has %d fields, need >= 5", len(schema))
	}
	if missing := missingFrom(schema, domain.MandatoryRecordFields); len(missing) > 0 {
		return domain.NewValidationError(domain.CodeSchemaTooSmall,
			"schema missing mandatory fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// checkQuery compares the echoed query against the task's expected query with
// type-aware equality: a string "2018" does not match the integer 2018.
func checkQuery(art *domain.Artifact, spec domain.TaskSpec) *domain.ValidationError {
	rawQuery, ok := art.MetadataRaw["query"].(map[string]any)
	if !ok {
		return domain.NewValidationError(domain.CodeQueryMismatch, "metadata missing or malformed query object")
	}

	expected := spec.Query.Map()
	for _, key := range domain.QueryFields {
		got, present := rawQuery[key]
		if !present {
			return domain.NewValidationError(domain.CodeQueryMismatch, "query missing required key %q", key)
		}
		if !queryValueEqual(expected[key], got) {
			return domain.NewValidationError(domain.CodeQueryMismatch,
				"query mismatch on %q: expected %v (%T), got %v (%T)", key, expected[key], expected[key], got, got)
		}
	}
	return nil
}

func queryValueEqual(expected, got any) bool {
	switch exp := expected.(type) {
	case string:
		g, ok := got.(string)
		return ok && g == exp
	case int:
		f, ok := domain.Numeric(got)
		if _, isStr := got.(string); isStr || !ok {
			return false
		}
		return domain.IsIntegral(got) && int(f) == exp
	default:
		return fmt.Sprint(expected) == fmt.Sprint(got)
	}
}

func checkDedupKey(art *domain.Artifact) ([]string, *domain.ValidationError) {
	if _, ok := art.MetadataRaw["dedup_key"]; !ok {
		return nil, domain.NewValidationError(domain.CodeDuplicateRows, "metadata missing required field dedup_key")
	}
	key := art.Metadata.DedupKey
	if len(key) < 3 {
		return nil, domain.NewValidationError(domain.CodeDuplicateRows,
			"dedup_key too small: has %d fields, need >= 3", len(key))
	}
	if missing := missingFrom(key, domain.RequiredDedupFields); len(missing) > 0 {
		return nil, domain.NewValidationError(domain.CodeDuplicateRows,
			"dedup_key missing required fields: %s", strings.Join(missing, ", "))
	}
	return key, nil
}

func checkNoDuplicates(rows []domain.Row, dedupKey []string) *domain.ValidationError {
	seen := make(map[string]int, len(rows))
	for idx, row := range rows {
		k := domain.KeyOf(row, dedupKey)
		if first, dup := seen[k]; dup {
			return domain.NewValidationError(domain.CodeDuplicateRows,
				"duplicate found at record %d (first occurrence at %d): key %s", idx, first, k)
		}
		seen[k] = idx
	}
	return nil
}

func checkNoTotalsRows(rows []domain.Row) *domain.ValidationError {
	for idx, row := range rows {
		if row.IsTotals() {
			return domain.NewValidationError(domain.CodeDuplicateRows,
				"totals row not dropped at record %d: partner=%v hs=%v", idx, row[domain.FieldPartner], row[domain.FieldHS])
		}
	}
	return nil
}

// logEvidence maps fault modes to the substrings the log must contain,
// checked case-insensitively. The inner slice is an any-of alternative set.
var logEvidence = map[domain.FaultMode][][]string{
	domain.FaultRateLimit:   {{"429"}, {"retry", "backoff"}},
	domain.FaultServerError: {{"500"}, {"retry"}},
	domain.FaultTotalsTrap:  {{"totals"}},
}

func (j *Judge) checkLogEvidence(dir string, spec domain.TaskSpec, art *domain.Artifact) *domain.ValidationError {
	data, err := artifact.ReadFile(filepath.Join(dir, domain.RunLogFileName), j.ioMaxElapsed)
	if err != nil {
		return domain.NewValidationError(domain.CodeMissingLogEvidence, "log could not be read: %v", err)
	}
	art.LogText = string(data)
	logText := strings.ToLower(art.LogText)

	if len(strings.Join(strings.Fields(logText), "")) < domain.MinLogChars {
		return domain.NewValidationError(domain.CodeMissingLogEvidence,
			"log too short: need >= %d non-whitespace characters", domain.MinLogChars)
	}

	for _, alternatives := range logEvidence[spec.FaultInjection.Mode] {
		found := false
		for _, token := range alternatives {
			if strings.Contains(logText, token) {
				found = true
				break
			}
		}
		if !found {
			return domain.NewValidationError(domain.CodeMissingLogEvidence,
				"no %s evidence: log missing %q", spec.FaultInjection.Mode, strings.Join(alternatives, " or "))
		}
	}
	return nil
}

func missingFrom(have []string, want []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, f := range have {
		set[f] = struct{}{}
	}
	var missing []string
	for _, f := range want {
		if _, ok := set[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}
