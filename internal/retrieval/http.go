package retrieval

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/greenbench/comtrade-bench/internal/domain"
)

const defaultRequestTimeout = 10 * time.Second

// pageEnvelope is the source's paging response: {"data": [...]}.
type pageEnvelope struct {
	Data []domain.Row `json:"data"`
}

// HTTPSource talks to a record source over HTTP. It exposes the source's two
// endpoints: POST /configure accepting the full task spec, and GET /records
// accepting {page, page_size} or {offset, maxRecords}.
type HTTPSource struct {
	client *resty.Client
}

// NewHTTPSource builds a source client for baseURL. Resty's own retries are
// disabled; the fetch engine owns the retry policy so backoff stays
// deterministic and observable in the run log.
func NewHTTPSource(baseURL string, logger logrus.FieldLogger) *HTTPSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultRequestTimeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if logger != nil {
		if l, ok := logger.(resty.Logger); ok {
			client.SetLogger(l)
		}
	}
	return &HTTPSource{client: client}
}

// Configure posts the task spec to the source's configuration endpoint.
func (s *HTTPSource) Configure(ctx context.Context, spec domain.TaskSpec) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(spec).
		Post("/configure")
	if err != nil {
		return fmt.Errorf("%w: configure: %v", ErrTransport, err)
	}
	if resp.IsError() {
		return fmt.Errorf("configure source: %w", &StatusError{StatusCode: resp.StatusCode()})
	}
	return nil
}

// Fetch retrieves one page of records.
func (s *HTTPSource) Fetch(ctx context.Context, req PageRequest) (*Page, error) {
	r := s.client.R().
		SetContext(ctx).
		SetResult(&pageEnvelope{})

	switch req.Mode {
	case domain.PagingModePage:
		r.SetQueryParams(map[string]string{
			"page":      strconv.Itoa(req.Page),
			"page_size": strconv.Itoa(req.PageSize),
		})
	case domain.PagingModeOffset:
		r.SetQueryParams(map[string]string{
			"offset":     strconv.Itoa(req.Offset),
			"maxRecords": strconv.Itoa(req.PageSize),
		})
	default:
		return nil, fmt.Errorf("unknown paging mode %q", req.Mode)
	}

	resp, err := r.Get("/records")
	if err != nil {
		return nil, fmt.Errorf("%w: fetch: %v", ErrTransport, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode()}
	}

	env, ok := resp.Result().(*pageEnvelope)
	if !ok || env == nil {
		return nil, fmt.Errorf("malformed source response: missing data envelope")
	}
	return &Page{Rows: env.Data}, nil
}
