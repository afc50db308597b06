package grader

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbench/comtrade-bench/internal/domain"
	"github.com/greenbench/comtrade-bench/internal/judge"
	"github.com/greenbench/comtrade-bench/internal/retrieval"
	"github.com/greenbench/comtrade-bench/internal/tasks"
)

// scriptedSource serves a fixed row set page by page, with one duplicate row
// appended so canonicalization has work to do.
type scriptedSource struct {
	rows       []domain.Row
	configured bool
}

func (s *scriptedSource) Configure(_ context.Context, _ domain.TaskSpec) error {
	s.configured = true
	return nil
}

func (s *scriptedSource) Fetch(_ context.Context, req retrieval.PageRequest) (*retrieval.Page, error) {
	start := req.Offset
	if req.Mode == domain.PagingModePage {
		start = (req.Page - 1) * req.PageSize
	}
	if start >= len(s.rows) {
		return &retrieval.Page{}, nil
	}
	end := start + req.PageSize
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return &retrieval.Page{Rows: s.rows[start:end]}, nil
}

func baselineRows(spec domain.TaskSpec, n int) []domain.Row {
	rows := make([]domain.Row, n)
	for i := range rows {
		rows[i] = domain.Row{
			"year":       spec.Query.Year,
			"reporter":   spec.Query.Reporter,
			"partner":    spec.Query.Partner,
			"flow":       spec.Query.Flow,
			"hs":         spec.Query.HS,
			"tradeValue": 1000 + i,
			"netWeight":  10 + i,
			"qty":        5,
			"record_id":  fmt.Sprintf("r%04d", i),
		}
	}
	return rows
}

func TestBaseline_ProducesValidArtifact(t *testing.T) {
	catalog := tasks.NewCatalog()
	spec, err := catalog.Get("T1_single_page")
	require.NoError(t, err)

	rows := baselineRows(spec, spec.Constraints.TotalRows)
	rows = append(rows, rows[0]) // duplicate, dropped by canonicalization
	source := &scriptedSource{rows: rows}

	outDir := filepath.Join(t.TempDir(), "T1_single_page")
	b := NewBaseline(source, quietLogger())
	require.NoError(t, b.Run(context.Background(), spec, outDir))
	assert.True(t, source.configured)

	// The reference artifact must clear the strict validator.
	if _, verr := judge.New(0).Validate(outDir, spec); verr != nil {
		t.Fatalf("baseline artifact failed validation: %v", verr)
	}

	// And it should grade at or near the ceiling.
	opts := testOptions(t)
	g := New(catalog, opts)
	report, err := g.Grade(context.Background(), "T1_single_page", outDir)
	require.NoError(t, err)
	assert.Equal(t, 30.0, report.ScoreBreakdown[domain.DimCorrectness])
	assert.Equal(t, 15.0, report.ScoreBreakdown[domain.DimCompleteness])
	assert.GreaterOrEqual(t, report.ScoreTotal, 90.0)
}

func TestBaseline_OffsetTask(t *testing.T) {
	catalog := tasks.NewCatalog()
	spec, err := catalog.Get("T6_offset_paging")
	require.NoError(t, err)

	source := &scriptedSource{rows: baselineRows(spec, spec.Constraints.TotalRows)}

	outDir := filepath.Join(t.TempDir(), "T6_offset_paging")
	b := NewBaseline(source, quietLogger())
	require.NoError(t, b.Run(context.Background(), spec, outDir))

	if _, verr := judge.New(0).Validate(outDir, spec); verr != nil {
		t.Fatalf("baseline artifact failed validation: %v", verr)
	}
}
