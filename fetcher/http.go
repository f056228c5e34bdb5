package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	inserr "github.com/Pratham2403/insights-dashboard-sub001/errors"
	"github.com/Pratham2403/insights-dashboard-sub001/pkg/logging"
	"github.com/Pratham2403/insights-dashboard-sub001/state"
)

const (
	defaultTimeout  = 30 * time.Second
	defaultMaxTries = 3
)

// HTTP fetches records from a reports endpoint that accepts a JSON query
// payload and returns a JSON array of records.
type HTTP struct {
	endpoint  string
	authToken string
	client    *http.Client
	maxTries  uint
	normalize bool
	logger    *slog.Logger
}

// HTTPOption configures an HTTP fetcher.
type HTTPOption func(*HTTP)

// WithClient overrides the underlying HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = c }
}

// WithAuthToken sets the bearer token sent with each request.
func WithAuthToken(token string) HTTPOption {
	return func(h *HTTP) { h.authToken = token }
}

// WithMaxTries bounds the number of attempts per query.
func WithMaxTries(n uint) HTTPOption {
	return func(h *HTTP) { h.maxTries = n }
}

// WithNormalization toggles HTML stripping on record content fields.
func WithNormalization(enabled bool) HTTPOption {
	return func(h *HTTP) { h.normalize = enabled }
}

// WithLogger sets the fetcher logger.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(h *HTTP) { h.logger = l }
}

// NewHTTP creates a fetcher against the given reports endpoint.
func NewHTTP(endpoint string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		endpoint:  endpoint,
		client:    &http.Client{Timeout: defaultTimeout},
		maxTries:  defaultMaxTries,
		normalize: true,
		logger:    logging.WithComponent("fetcher"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// queryPayload is the wire form of a query descriptor.
type queryPayload struct {
	Query      string            `json:"query"`
	Product    string            `json:"product,omitempty"`
	Channel    string            `json:"channel,omitempty"`
	Goal       string            `json:"goal,omitempty"`
	TimePeriod string            `json:"timePeriod,omitempty"`
	Location   string            `json:"location,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
}

// Fetch posts the query descriptor and decodes the record list. Transient
// failures (network errors, 5xx) are retried with exponential backoff up to
// the configured attempt bound; 4xx responses fail immediately.
func (h *HTTP) Fetch(ctx context.Context, q state.Query) ([]state.Record, error) {
	body, err := json.Marshal(queryPayload{
		Query:      q.Text,
		Product:    q.Product,
		Channel:    q.Channel,
		Goal:       q.Goal,
		TimePeriod: q.TimePeriod,
		Location:   q.Location,
		Filters:    q.Filters,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode query %s: %v", inserr.ErrFetchFailed, q.ID, err)
	}

	operation := func() ([]state.Record, error) {
		return h.fetchOnce(ctx, body)
	}

	records, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(h.maxTries),
	)
	if err != nil {
		h.logger.Error("fetch failed", "query_id", q.ID, "channel", q.Channel, "error", err)
		return nil, fmt.Errorf("%w: query %s: %v", inserr.ErrFetchFailed, q.ID, err)
	}

	if h.normalize {
		for i := range records {
			normalizeRecord(records[i])
		}
	}
	h.logger.Debug("fetched records", "query_id", q.ID, "channel", q.Channel, "count", len(records))
	return records, nil
}

func (h *HTTP) fetchOnce(ctx context.Context, body []byte) ([]state.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+h.authToken)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, backoff.Permanent(fmt.Errorf("server returned %d", resp.StatusCode))
	}

	var records []state.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return records, nil
}
