package domain

import (
	"errors"
	"fmt"
)

// ValidationCode is a stable error code from the artifact validation
// taxonomy. Codes are consumed by external tooling and must not change.
type ValidationCode string

// Validation error taxonomy.
const (
	// CodeMissingDir - missing output directory.
	CodeMissingDir ValidationCode = "E001"
	// CodeMissingFile - missing required file.
	CodeMissingFile ValidationCode = "E002"
	// CodeInvalidJSON - invalid or non-conforming JSON or record field.
	CodeInvalidJSON ValidationCode = "E003"
	// CodeRowCountMismatch - declared row_count does not match actual rows.
	CodeRowCountMismatch ValidationCode = "E004"
	// CodeSchemaTooSmall - schema too small or missing mandatory fields.
	CodeSchemaTooSmall ValidationCode = "E005"
	// CodeQueryMismatch - query mismatch against the expected task query.
	CodeQueryMismatch ValidationCode = "E006"
	// CodeDuplicateRows - duplicate rows or invalid/missing dedup key.
	CodeDuplicateRows ValidationCode = "E007"
	// CodeMissingLogEvidence - missing required log evidence for the fault mode.
	CodeMissingLogEvidence ValidationCode = "E008"
)

// ValidationError is a coded, terminal artifact validation failure.
// Validation halts at the first error; there is no resumption.
type ValidationError struct {
	Code   ValidationCode
	Detail string
}

// Error renders the error with its stable code prefix, e.g. "[E004] ...".
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Detail)
}

// NewValidationError builds a coded validation error with a formatted detail.
func NewValidationError(code ValidationCode, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Sentinel errors surfaced by the grading pipeline. These identify
// fatal-to-the-request conditions that callers must distinguish from a score
// of zero.
var (
	// ErrUnknownTask indicates the task_id is not in the catalog.
	ErrUnknownTask = errors.New("unknown task")

	// ErrScoringTimeout indicates the scoring pass exceeded its wall-clock
	// budget. Distinct from any score: no partial result accompanies it.
	ErrScoringTimeout = errors.New("scoring timed out")

	// ErrIODeadline indicates transient filesystem errors persisted past the
	// retry deadline and were escalated to a definitive timeout failure.
	ErrIODeadline = errors.New("i/o retry deadline exceeded")
)
