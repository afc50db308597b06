// Package retrieval fetches paginated records from a configurable source
// under a task's constraints, applying a deterministic bounded-retry policy
// on transient failures. Retrieval is strictly sequential: one outstanding
// request at a time, blocking backoff sleeps, no overlap between pages or
// offsets, so the accumulated output order is reproducible.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/greenbench/comtrade-bench/internal/domain"
)

// PageRequest addresses one page of records in either paging mode.
type PageRequest struct {
	Mode     domain.PagingMode
	Page     int // 1-based, page mode only
	Offset   int // offset mode only
	PageSize int
}

// Page is one source response.
type Page struct {
	Rows []domain.Row
}

// Source is a paginated record source. The grading system consumes it; the
// service behind it is external.
type Source interface {
	// Configure pushes the full task spec to the source's configuration
	// endpoint so subsequent fetches serve that task's data and faults.
	Configure(ctx context.Context, spec domain.TaskSpec) error

	// Fetch retrieves one page. Transient failures are reported as
	// *StatusError (HTTP 429/500) or errors wrapping ErrTransport.
	Fetch(ctx context.Context, req PageRequest) (*Page, error)
}

// ErrTransport marks request-level transport failures (connection reset,
// timeout) that are retried like 429/500 responses.
var ErrTransport = errors.New("transport failure")

// StatusError is a non-200 response from the record source.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("source returned HTTP %d", e.StatusCode)
}

// IsTransient reports whether err is a retryable retrieval failure: an HTTP
// 429 or 500 status, or an equivalent transport failure. Every other error
// is permanent and aborts retrieval immediately.
func IsTransient(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode == http.StatusInternalServerError
	}
	return errors.Is(err, ErrTransport)
}

// StatusOf extracts the HTTP status from err, or 0 if err carries none.
func StatusOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
