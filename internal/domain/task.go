// Package domain defines the data model shared by the retrieval pipeline,
// the artifact contract, and the grading engine: task specifications, record
// rows, artifact descriptors, validation error codes, and score results.
//
// Types here are pure data with validation; all behavior that touches the
// filesystem, the network, or the clock lives in the packages that consume
// them.
package domain

// PagingMode selects the pagination strategy used against the record source.
type PagingMode string

// Supported pagination strategies.
const (
	// PagingModePage requests numbered pages 1, 2, 3, ...
	PagingModePage PagingMode = "page"
	// PagingModeOffset requests with an increasing row offset.
	PagingModeOffset PagingMode = "offset"
)

// FaultMode identifies the fault-injection behavior configured for a task.
type FaultMode string

// Fault-injection modes a task may declare.
const (
	FaultNone        FaultMode = "none"
	FaultRateLimit   FaultMode = "rate_limit"
	FaultServerError FaultMode = "server_error"
	FaultDuplicates  FaultMode = "duplicates"
	FaultPageDrift   FaultMode = "page_drift"
	FaultTotalsTrap  FaultMode = "totals_trap"
	FaultPagination  FaultMode = "pagination"
)

// Query is the filter predicate sent to the record source. All five fields
// participate in the type-aware query match during validation and scoring.
type Query struct {
	Reporter string `json:"reporter" validate:"required"`
	Partner  string `json:"partner" validate:"required"`
	Flow     string `json:"flow" validate:"required,oneof=M X"`
	HS       string `json:"hs" validate:"required"`
	Year     int    `json:"year" validate:"required,min=1900,max=2100"`
}

// QueryFields lists the query keys in their canonical order.
var QueryFields = []string{"reporter", "partner", "flow", "hs", "year"}

// Map returns the query as a generic mapping, keyed by QueryFields.
// Used for type-aware comparison against the query echoed in artifact metadata.
func (q Query) Map() map[string]any {
	return map[string]any{
		"reporter": q.Reporter,
		"partner":  q.Partner,
		"flow":     q.Flow,
		"hs":       q.HS,
		"year":     q.Year,
	}
}

// Constraints bound a task's retrieval behavior.
type Constraints struct {
	// PagingMode selects the pagination strategy.
	PagingMode PagingMode `json:"paging_mode" validate:"required,oneof=page offset"`

	// PageSize is the number of rows requested per page.
	PageSize int `json:"page_size" validate:"required,gt=0"`

	// MaxRequests is the upper bound on retrieval attempts.
	MaxRequests int `json:"max_requests" validate:"required,gt=0"`

	// TotalRows is the expected row count for the task. Zero means the
	// expected count is not known and exact declared-vs-actual match is
	// rewarded instead.
	TotalRows int `json:"total_rows" validate:"min=0"`
}

// FaultInjection declares which fault the mock source injects for a task.
type FaultInjection struct {
	Mode FaultMode `json:"mode" validate:"required,oneof=none rate_limit server_error duplicates page_drift totals_trap pagination"`

	// Rate is the per-request injection probability for the stochastic
	// modes (rate_limit, server_error). Ignored by the other modes.
	Rate float64 `json:"rate,omitempty" validate:"min=0,max=1"`
}

// TaskSpec fully describes one benchmark task. Specs are immutable after
// catalog load and are looked up by TaskID.
type TaskSpec struct {
	TaskID         string         `json:"task_id" validate:"required"`
	Description    string         `json:"description,omitempty"`
	Query          Query          `json:"query" validate:"required"`
	Constraints    Constraints    `json:"constraints" validate:"required"`
	FaultInjection FaultInjection `json:"fault_injection" validate:"required"`
}

// Validate checks the spec against its structural constraints.
func (t *TaskSpec) Validate() error { return validate.Struct(t) }

// TotalsHandlingRequired reports whether the task requires totals-row
// suppression. The fault-injection mode is the semantic trigger; task IDs
// are display names only.
func (t *TaskSpec) TotalsHandlingRequired() bool {
	return t.FaultInjection.Mode == FaultTotalsTrap
}

// RequestBaseline is the task-specific request-count baseline used by
// efficiency scoring: the minimum number of page fetches needed to retrieve
// TotalRows rows at PageSize rows per request, never less than one.
func (t *TaskSpec) RequestBaseline() int {
	ps := t.Constraints.PageSize
	total := t.Constraints.TotalRows
	if ps <= 0 || total <= 0 {
		return 1
	}
	n := (total + ps - 1) / ps
	if n < 1 {
		n = 1
	}
	return n
}
