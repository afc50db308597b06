package tasks

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/greenbench/comtrade-bench/internal/domain"
)

// Catalog holds the task specs the service grades against, keyed by task id.
type Catalog struct {
	mu    sync.RWMutex
	specs map[string]domain.TaskSpec
}

// builtinSpecs are the seven canonical tasks. T1 needs one request; T2 and T6
// paginate; T3 through T5 and T7 inject one fault mode each.
func builtinSpecs() []domain.TaskSpec {
	return []domain.TaskSpec{
		{
			TaskID:      "T1_single_page",
			Description: "one page of results, no faults",
			Query:       domain.Query{Reporter: "USA", Partner: "CAN", Flow: "M", HS: "8471", Year: 2023},
			Constraints: domain.Constraints{PagingMode: domain.PagingModePage, PageSize: 500, MaxRequests: 5, TotalRows: 50},
			FaultInjection: domain.FaultInjection{Mode: domain.FaultNone},
		},
		{
			TaskID:      "T2_multi_page",
			Description: "multi-page retrieval, page mode",
			Query:       domain.Query{Reporter: "DEU", Partner: "FRA", Flow: "X", HS: "8703", Year: 2023},
			Constraints: domain.Constraints{PagingMode: domain.PagingModePage, PageSize: 100, MaxRequests: 10, TotalRows: 450},
			FaultInjection: domain.FaultInjection{Mode: domain.FaultPagination},
		},
		{
			TaskID:      "T3_rate_limit",
			Description: "intermittent HTTP 429 responses",
			Query:       domain.Query{Reporter: "JPN", Partner: "KOR", Flow: "M", HS: "2709", Year: 2022},
			Constraints: domain.Constraints{PagingMode: domain.PagingModePage, PageSize: 100, MaxRequests: 12, TotalRows: 300},
			FaultInjection: domain.FaultInjection{Mode: domain.FaultRateLimit, Rate: 0.3},
		},
		{
			TaskID:      "T4_server_error",
			Description: "intermittent HTTP 500 responses",
			Query:       domain.Query{Reporter: "GBR", Partner: "IRL", Flow: "X", HS: "3004", Year: 2022},
			Constraints: domain.Constraints{PagingMode: domain.PagingModePage, PageSize: 100, MaxRequests: 12, TotalRows: 300},
			FaultInjection: domain.FaultInjection{Mode: domain.FaultServerError, Rate: 0.2},
		},
		{
			TaskID:      "T5_duplicates",
			Description: "duplicate rows across page boundaries",
			Query:       domain.Query{Reporter: "BRA", Partner: "ARG", Flow: "M", HS: "1001", Year: 2023},
			Constraints: domain.Constraints{PagingMode: domain.PagingModePage, PageSize: 100, MaxRequests: 10, TotalRows: 400},
			FaultInjection: domain.FaultInjection{Mode: domain.FaultDuplicates},
		},
		{
			TaskID:      "T6_offset_paging",
			Description: "offset pagination with ordering drift",
			Query:       domain.Query{Reporter: "IND", Partner: "CHN", Flow: "M", HS: "8517", Year: 2023},
			Constraints: domain.Constraints{PagingMode: domain.PagingModeOffset, PageSize: 150, MaxRequests: 8, TotalRows: 600},
			FaultInjection: domain.FaultInjection{Mode: domain.FaultPageDrift},
		},
		{
			TaskID:      "T7_totals_trap",
			Description: "aggregate totals rows interleaved with detail rows",
			Query:       domain.Query{Reporter: "USA", Partner: "MEX", Flow: "X", HS: "0901", Year: 2023},
			Constraints: domain.Constraints{PagingMode: domain.PagingModePage, PageSize: 100, MaxRequests: 10, TotalRows: 280},
			FaultInjection: domain.FaultInjection{Mode: domain.FaultTotalsTrap},
		},
	}
}

// NewCatalog returns a catalog seeded with the built-in tasks.
func NewCatalog() *Catalog {
	c := &Catalog{specs: make(map[string]domain.TaskSpec)}
	for _, spec := range builtinSpecs() {
		c.specs[spec.TaskID] = spec
	}
	return c
}

// LoadCatalog reads extra or overriding task specs from a JSON file holding an
// array of specs, layered over the built-ins. Every loaded spec is validated.
func LoadCatalog(path string) (*Catalog, error) {
	c := NewCatalog()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	var specs []domain.TaskSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", path, err)
	}
	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("task %q: %w", spec.TaskID, err)
		}
		c.specs[spec.TaskID] = spec
	}
	return c, nil
}

// Get returns the spec for id, or domain.ErrUnknownTask.
func (c *Catalog) Get(id string) (domain.TaskSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.specs[id]
	if !ok {
		return domain.TaskSpec{}, fmt.Errorf("%w: %s", domain.ErrUnknownTask, id)
	}
	return spec, nil
}

// List returns all specs ordered by task id.
func (c *Catalog) List() []domain.TaskSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.TaskSpec, 0, len(c.specs))
	for _, spec := range c.specs {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}
