package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbench/comtrade-bench/internal/domain"
)

func TestNewCatalog_Builtins(t *testing.T) {
	c := NewCatalog()

	specs := c.List()
	require.Len(t, specs, 7)

	ids := make([]string, len(specs))
	for i, spec := range specs {
		ids[i] = spec.TaskID
		assert.NoError(t, spec.Validate(), "builtin %s must validate", spec.TaskID)
	}
	assert.Equal(t, []string{
		"T1_single_page", "T2_multi_page", "T3_rate_limit", "T4_server_error",
		"T5_duplicates", "T6_offset_paging", "T7_totals_trap",
	}, ids)

	trap, err := c.Get("T7_totals_trap")
	require.NoError(t, err)
	assert.Equal(t, domain.FaultTotalsTrap, trap.FaultInjection.Mode)
	assert.True(t, trap.TotalsHandlingRequired())

	offset, err := c.Get("T6_offset_paging")
	require.NoError(t, err)
	assert.Equal(t, domain.PagingModeOffset, offset.Constraints.PagingMode)
}

func TestCatalog_GetUnknown(t *testing.T) {
	c := NewCatalog()

	_, err := c.Get("T99_nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownTask)
	assert.Contains(t, err.Error(), "T99_nope")
}

func TestLoadCatalog_EmptyPathKeepsBuiltins(t *testing.T) {
	c, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Len(t, c.List(), 7)
}

func TestLoadCatalog_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	payload := `[
		{
			"task_id": "T1_single_page",
			"query": {"reporter": "USA", "partner": "CAN", "flow": "M", "hs": "8471", "year": 2021},
			"constraints": {"paging_mode": "page", "page_size": 200, "max_requests": 4, "total_rows": 120},
			"fault_injection": {"mode": "none"}
		},
		{
			"task_id": "T8_custom",
			"query": {"reporter": "NLD", "partner": "BEL", "flow": "X", "hs": "2204", "year": 2024},
			"constraints": {"paging_mode": "offset", "page_size": 50, "max_requests": 6, "total_rows": 200},
			"fault_injection": {"mode": "duplicates"}
		}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	c, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Len(t, c.List(), 8)

	overridden, err := c.Get("T1_single_page")
	require.NoError(t, err)
	assert.Equal(t, 2021, overridden.Query.Year)
	assert.Equal(t, 120, overridden.Constraints.TotalRows)

	custom, err := c.Get("T8_custom")
	require.NoError(t, err)
	assert.Equal(t, domain.FaultDuplicates, custom.FaultInjection.Mode)
}

func TestLoadCatalog_RejectsInvalidSpec(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	payload := `[
		{
			"task_id": "T9_bad",
			"query": {"reporter": "USA", "partner": "CAN", "flow": "Z", "hs": "8471", "year": 2023},
			"constraints": {"paging_mode": "page", "page_size": 100, "max_requests": 5, "total_rows": 50},
			"fault_injection": {"mode": "none"}
		}
	]`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	_, err := LoadCatalog(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "T9_bad")
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
