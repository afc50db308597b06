package domain

// Artifact file contract: one directory per task containing exactly these files.
const (
	DataFileName     = "data.jsonl"
	MetadataFileName = "metadata.json"
	RunLogFileName   = "run.log"

	// ManifestFileName is optional supplementary output; staged when present,
	// never required.
	ManifestFileName = "manifest.json"
)

// RequiredFiles lists the files an artifact directory must contain.
var RequiredFiles = []string{DataFileName, MetadataFileName, RunLogFileName}

// MinLogChars is the minimum number of non-whitespace characters run.log
// must contain to count as an execution narrative.
const MinLogChars = 10

// TotalsRule is the human-readable statement of the totals-row invariant,
// recorded in metadata for auditability.
const TotalsRule = "drop rows where isTotal=true AND partner=WLD AND hs=TOTAL"

// PaginationStats summarizes how the retrieval loop terminated.
type PaginationStats struct {
	PagingMode   string `json:"paging_mode"`
	PageSize     int    `json:"page_size"`
	PagesFetched int    `json:"pages_fetched"`
	StopReason   string `json:"stop_reason"`
}

// RequestStats counts requests and fault responses observed during retrieval.
type RequestStats struct {
	RequestsTotal int `json:"requests_total"`
	RetriesTotal  int `json:"retries_total"`
	HTTP429       int `json:"http_429"`
	HTTP500       int `json:"http_500"`
}

// RetryPolicyInfo declares the retry policy the retrieval engine applied.
type RetryPolicyInfo struct {
	MaxRetries  int    `json:"max_retries"`
	Backoff     string `json:"backoff"`
	BaseSeconds int    `json:"base_seconds"`
}

// TotalsHandling records whether and how totals rows were suppressed.
type TotalsHandling struct {
	Enabled     bool   `json:"enabled"`
	RowsDropped int    `json:"rows_dropped"`
	Rule        string `json:"rule"`
}

// Metadata is the typed view of metadata.json. Unknown fields in the file are
// ignored; presence checks for completeness scoring operate on the raw
// decoded map carried alongside this struct in Artifact.
type Metadata struct {
	TaskID          string            `json:"task_id"`
	Query           map[string]any    `json:"query"`
	RowCount        int               `json:"row_count"`
	Schema          []string          `json:"schema"`
	DedupKey        []string          `json:"dedup_key"`
	SortedBy        []string          `json:"sorted_by"`
	PaginationStats *PaginationStats  `json:"pagination_stats,omitempty"`
	RequestStats    *RequestStats     `json:"request_stats,omitempty"`
	RetryPolicy     *RetryPolicyInfo  `json:"retry_policy,omitempty"`
	TotalsHandling  *TotalsHandling   `json:"totals_handling,omitempty"`
	ExecutionTime   float64           `json:"execution_time_seconds,omitempty"`
	RequestCount    int               `json:"request_count,omitempty"`
	OutputHashes    map[string]string `json:"output_hashes,omitempty"`
	CreatedAt       string            `json:"created_at,omitempty"`
	ToolVersions    map[string]string `json:"tool_versions,omitempty"`
	Notes           string            `json:"notes,omitempty"`
}

// Artifact is a fully parsed, validated output bundle. The judge produces it;
// downstream consumers only read it.
type Artifact struct {
	// Dir is the directory the artifact was read from.
	Dir string

	// Rows are the parsed data.jsonl records in file order.
	Rows []Row

	// Metadata is the typed metadata descriptor.
	Metadata Metadata

	// MetadataRaw preserves the decoded metadata object for field-presence
	// checks, which the typed view cannot express.
	MetadataRaw map[string]any

	// LogText is the full run.log contents.
	LogText string
}
