package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() TaskSpec {
	return TaskSpec{
		TaskID: "T1_single_page",
		Query:  Query{Reporter: "USA", Partner: "CAN", Flow: "M", HS: "8471", Year: 2023},
		Constraints: Constraints{
			PagingMode: PagingModePage, PageSize: 500, MaxRequests: 5, TotalRows: 50,
		},
		FaultInjection: FaultInjection{Mode: FaultNone},
	}
}

func TestTaskSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*TaskSpec)
		wantErr bool
	}{
		{
			name:    "valid spec",
			modify:  func(_ *TaskSpec) {},
			wantErr: false,
		},
		{
			name:    "missing task id",
			modify:  func(s *TaskSpec) { s.TaskID = "" },
			wantErr: true,
		},
		{
			name:    "invalid flow",
			modify:  func(s *TaskSpec) { s.Query.Flow = "Z" },
			wantErr: true,
		},
		{
			name:    "year out of range",
			modify:  func(s *TaskSpec) { s.Query.Year = 1800 },
			wantErr: true,
		},
		{
			name:    "invalid paging mode",
			modify:  func(s *TaskSpec) { s.Constraints.PagingMode = "cursor" },
			wantErr: true,
		},
		{
			name:    "zero page size",
			modify:  func(s *TaskSpec) { s.Constraints.PageSize = 0 },
			wantErr: true,
		},
		{
			name:    "unknown fault mode",
			modify:  func(s *TaskSpec) { s.FaultInjection.Mode = "chaos" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.modify(&spec)
			err := spec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTaskSpec_RequestBaseline(t *testing.T) {
	tests := []struct {
		name      string
		pageSize  int
		totalRows int
		want      int
	}{
		{"single page", 500, 50, 1},
		{"exact multiple", 100, 400, 4},
		{"partial last page rounds up", 100, 450, 5},
		{"unknown total", 100, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			spec.Constraints.PageSize = tt.pageSize
			spec.Constraints.TotalRows = tt.totalRows
			assert.Equal(t, tt.want, spec.RequestBaseline())
		})
	}
}

func TestTaskSpec_TotalsHandlingRequired(t *testing.T) {
	spec := validSpec()
	assert.False(t, spec.TotalsHandlingRequired())

	spec.FaultInjection.Mode = FaultTotalsTrap
	assert.True(t, spec.TotalsHandlingRequired())
}

func TestQuery_Map(t *testing.T) {
	m := validSpec().Query.Map()
	require.Len(t, m, len(QueryFields))
	for _, f := range QueryFields {
		assert.Contains(t, m, f)
	}
	assert.Equal(t, 2023, m["year"])
	assert.Equal(t, "M", m["flow"])
}
