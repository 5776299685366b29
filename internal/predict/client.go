package predict

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"analyzeit.org/internal/obs"
)

// ErrUpstream hides every upstream failure mode behind one generic error so
// the caller never sees the prediction service's internals.
var ErrUpstream = errors.New("predict: upstream prediction failure")

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

// Client is the prediction proxy: one outbound GET per query, no caching,
// no retries.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout sets the outbound request budget.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// NewClient builds a proxy for the service at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Predict forwards a (country, virus, date range) query and returns the
// validated document. Transport failures, non-2xx statuses and undecodable
// bodies are logged with their cause and surfaced as ErrUpstream.
func (c *Client) Predict(ctx context.Context, country, virus, dateStart, dateEnd string) (*Document, error) {
	query := url.Values{}
	query.Set("country", country)
	query.Set("virus", virus)
	query.Set("date_start", dateStart)
	query.Set("date_end", dateEnd)

	endpoint := fmt.Sprintf("%s/predict?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, c.fail(time.Time{}, "build request", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(start, "transport", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(start, "status", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.fail(start, "read body", err)
	}

	doc, dropped, err := ParseDocument(body)
	if err != nil {
		return nil, c.fail(start, "decode", err)
	}
	for _, d := range dropped {
		obs.Warn("prediction metric dropped", map[string]any{"cause": d.Error()})
	}

	obs.ObserveUpstreamPrediction("ok", time.Since(start))
	return doc, nil
}

func (c *Client) fail(start time.Time, stage string, cause error) error {
	obs.Error("prediction upstream call failed", map[string]any{
		"stage": stage,
		"cause": cause.Error(),
	})
	if !start.IsZero() {
		obs.ObserveUpstreamPrediction("error", time.Since(start))
	}
	return ErrUpstream
}
