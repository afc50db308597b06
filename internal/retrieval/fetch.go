package retrieval

import (
	"context"
	"time"

	"github.com/greenbench/comtrade-bench/internal/domain"
	"github.com/greenbench/comtrade-bench/internal/runlog"
)

// Stop reasons recorded in pagination stats.
const (
	StopComplete       = "complete"
	StopLastPage       = "last_page"
	StopEmptyPage      = "empty_page"
	StopMaxRequests    = "max_requests"
	StopRetryExhausted = "retry_exhausted"
)

// Stats summarizes one retrieval run for the artifact metadata.
type Stats struct {
	Requests     int
	Retries      int
	HTTP429      int
	HTTP500      int
	PagesFetched int
	StopReason   string
}

// PaginationStats converts the run summary into the metadata descriptor.
func (s Stats) PaginationStats(mode domain.PagingMode, pageSize int) *domain.PaginationStats {
	return &domain.PaginationStats{
		PagingMode:   string(mode),
		PageSize:     pageSize,
		PagesFetched: s.PagesFetched,
		StopReason:   s.StopReason,
	}
}

// RequestStats converts the run summary into the metadata descriptor.
func (s Stats) RequestStats() *domain.RequestStats {
	return &domain.RequestStats{
		RequestsTotal: s.Requests,
		RetriesTotal:  s.Retries,
		HTTP429:       s.HTTP429,
		HTTP500:       s.HTTP500,
	}
}

// Engine paginates a record source under a task's constraints. Fetching is
// single-threaded and strictly sequential; determinism of the accumulated
// row order depends on it, so the engine never issues overlapping requests.
type Engine struct {
	source Source
	policy Policy
	log    *runlog.Recorder
}

// NewEngine builds an engine over source with the given retry policy,
// narrating every request and retry decision to rec.
func NewEngine(source Source, policy Policy, rec *runlog.Recorder) *Engine {
	return &Engine{source: source, policy: policy, log: rec}
}

// FetchAll retrieves rows for the task until a stop condition is reached.
// Exhausting retries on a page is not an error: the engine logs it and
// returns whatever was accumulated, leaving the shortfall to be judged
// downstream through the row count.
func (e *Engine) FetchAll(ctx context.Context, spec domain.TaskSpec) ([]domain.Row, Stats) {
	c := spec.Constraints
	e.log.Infof("fetching records for task %s (paging_mode=%s, page_size=%d, max_requests=%d)",
		spec.TaskID, c.PagingMode, c.PageSize, c.MaxRequests)

	var rows []domain.Row
	var stats Stats

	switch c.PagingMode {
	case domain.PagingModePage:
		rows = e.fetchByPage(ctx, c, &stats)
	case domain.PagingModeOffset:
		rows = e.fetchByOffset(ctx, c, &stats)
	default:
		e.log.Errorf("unknown paging_mode: %s", c.PagingMode)
		stats.StopReason = "invalid_mode"
		return nil, stats
	}

	e.log.Infof("fetch complete: %d rows in %d pages (stop reason: %s)",
		len(rows), stats.PagesFetched, stats.StopReason)
	return rows, stats
}

func (e *Engine) fetchByPage(ctx context.Context, c domain.Constraints, stats *Stats) []domain.Row {
	var rows []domain.Row
	for page := 1; ; page++ {
		if len(rows) >= c.TotalRows {
			stats.StopReason = StopComplete
			break
		}
		if page > c.MaxRequests {
			stats.StopReason = StopMaxRequests
			break
		}

		e.log.Infof("request: fetching page %d", page)
		result, ok := e.fetchOne(ctx, PageRequest{
			Mode: domain.PagingModePage, Page: page, PageSize: c.PageSize,
		}, stats)
		if !ok {
			stats.StopReason = StopRetryExhausted
			break
		}

		rows = append(rows, result.Rows...)
		stats.PagesFetched++

		if len(result.Rows) < c.PageSize {
			e.log.Infof("last page reached (returned %d rows)", len(result.Rows))
			stats.StopReason = StopLastPage
			break
		}
	}
	return rows
}

func (e *Engine) fetchByOffset(ctx context.Context, c domain.Constraints, stats *Stats) []domain.Row {
	var rows []domain.Row
	offset := 0
	for {
		if offset >= c.TotalRows {
			stats.StopReason = StopComplete
			break
		}
		if offset/c.PageSize >= c.MaxRequests {
			stats.StopReason = StopMaxRequests
			break
		}

		e.log.Infof("request: fetching offset %d", offset)
		result, ok := e.fetchOne(ctx, PageRequest{
			Mode: domain.PagingModeOffset, Offset: offset, PageSize: c.PageSize,
		}, stats)
		if !ok {
			stats.StopReason = StopRetryExhausted
			break
		}

		stats.PagesFetched++
		if len(result.Rows) == 0 {
			e.log.Infof("no more records (empty page at offset %d)", offset)
			stats.StopReason = StopEmptyPage
			break
		}

		rows = append(rows, result.Rows...)
		offset += len(result.Rows)
	}
	return rows
}

// fetchOne issues one page request under the retry policy, narrating every
// attempt. The second return is false when retries were exhausted or a
// permanent error aborted the fetch.
func (e *Engine) fetchOne(ctx context.Context, req PageRequest, stats *Stats) (*Page, bool) {
	var page *Page
	err := e.policy.Do(ctx, func() error {
		stats.Requests++
		p, err := e.source.Fetch(ctx, req)
		if err != nil {
			switch StatusOf(err) {
			case 429:
				stats.HTTP429++
			case 500:
				stats.HTTP500++
			}
			return err
		}
		page = p
		return nil
	}, func(attempt int, delay time.Duration, err error) {
		stats.Retries++
		if status := StatusOf(err); status != 0 {
			e.log.Warnf("HTTP %d received, retry with exponential backoff %s (attempt %d/%d)",
				status, delay, attempt+1, e.policy.MaxRetries)
			return
		}
		e.log.Warnf("request failed (%v), retry with exponential backoff %s (attempt %d/%d)",
			err, delay, attempt+1, e.policy.MaxRetries)
	})
	if err != nil {
		if IsTransient(err) {
			e.log.Errorf("%v after %d retries, max retries limit reached; returning partial result",
				err, e.policy.MaxRetries)
		} else {
			e.log.Errorf("permanent fetch failure: %v", err)
		}
		return nil, false
	}
	return page, true
}
