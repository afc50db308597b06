package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/greenbench/comtrade-bench/internal/domain"
	"github.com/greenbench/comtrade-bench/internal/retrieval"
	"github.com/greenbench/comtrade-bench/internal/runlog"
)

// WriteInput carries everything needed to persist one task run as a
// contract-compliant artifact.
type WriteInput struct {
	Spec          domain.TaskSpec
	Rows          []domain.Row
	DedupKey      []string
	TotalsDropped int
	Stats         retrieval.Stats
	Log           *runlog.Recorder
	Elapsed       time.Duration
}

// Write persists rows, the metadata descriptor, and the execution log to dir
// in the agreed file contract. Rows become immutable once written: the judge
// and scorer only read them.
func Write(dir string, in WriteInput) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	var data bytes.Buffer
	for _, row := range in.Rows {
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
		data.Write(line)
		data.WriteByte('\n')
	}
	if err := os.WriteFile(filepath.Join(dir, domain.DataFileName), data.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", domain.DataFileName, err)
	}
	in.Log.Infof("wrote %d rows to %s", len(in.Rows), domain.DataFileName)

	meta := buildMetadata(in, digest(data.Bytes()))
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	metaBytes = append(metaBytes, '\n')
	if err := os.WriteFile(filepath.Join(dir, domain.MetadataFileName), metaBytes, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", domain.MetadataFileName, err)
	}
	in.Log.Infof("wrote %s", domain.MetadataFileName)

	// run.log is written last so it narrates the data and metadata writes.
	if err := os.WriteFile(filepath.Join(dir, domain.RunLogFileName), []byte(in.Log.Text()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", domain.RunLogFileName, err)
	}
	return nil
}

func buildMetadata(in WriteInput, dataDigest string) domain.Metadata {
	key := in.DedupKey
	if len(key) == 0 {
		key = domain.DefaultDedupKey()
	}
	c := in.Spec.Constraints
	return domain.Metadata{
		TaskID:          in.Spec.TaskID,
		Query:           in.Spec.Query.Map(),
		RowCount:        len(in.Rows),
		Schema:          schemaOf(in.Rows),
		DedupKey:        key,
		SortedBy:        key,
		PaginationStats: in.Stats.PaginationStats(c.PagingMode, c.PageSize),
		RequestStats:    in.Stats.RequestStats(),
		RetryPolicy: &domain.RetryPolicyInfo{
			MaxRetries:  retrieval.DefaultMaxRetries,
			Backoff:     "exponential",
			BaseSeconds: 1,
		},
		TotalsHandling: &domain.TotalsHandling{
			Enabled:     in.Spec.TotalsHandlingRequired(),
			RowsDropped: in.TotalsDropped,
			Rule:        domain.TotalsRule,
		},
		ExecutionTime: in.Elapsed.Seconds(),
		RequestCount:  in.Stats.Requests,
		OutputHashes:  map[string]string{domain.DataFileName: dataDigest},
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		ToolVersions:  map[string]string{"go": runtime.Version()},
		Notes:         fmt.Sprintf("baseline retrieval run, fault mode %s", in.Spec.FaultInjection.Mode),
	}
}

// schemaOf derives the declared schema from the first row's field names,
// sorted for a stable descriptor.
func schemaOf(rows []domain.Row) []string {
	if len(rows) == 0 {
		return []string{}
	}
	fields := make([]string, 0, len(rows[0]))
	for f := range rows[0] {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
