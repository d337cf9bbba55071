// Package api is the typed client for the youth group's remote REST API.
// It owns the Persona and Actividad resources; this service holds no copy of them.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"juventud/internal/adapters/http/perf"
)

// DefaultBaseURL is the production backend.
const DefaultBaseURL = "https://backend01-proyecto-jovenes-phru.vercel.app"

// RequestIDHeader carries a per-call id so backend logs can be correlated.
const RequestIDHeader = "X-Request-ID"

// Errors returned before or after a round trip.
var (
	ErrActividadIDRequired = errors.New("Clase id requerido")
	ErrPersonaIDRequired   = errors.New("personaId requerido")
	ErrInvalidResponse     = errors.New("invalid response from backend")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Payload any // decoded JSON body, the raw text when not JSON, or nil when empty
	Message string
}

// Error returns the backend's message or the HTTP status text.
func (e *APIError) Error() string {
	return e.Message
}

// newAPIError builds an APIError from a failed response body.
// The message comes from the payload's "message" field, falling back to the status text.
func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if len(body) > 0 {
		var decoded any
		if err := json.Unmarshal(body, &decoded); err == nil {
			e.Payload = decoded
			if m, ok := decoded.(map[string]any); ok {
				if msg, ok := m["message"].(string); ok && strings.TrimSpace(msg) != "" {
					e.Message = msg
				}
			}
		} else {
			e.Payload = string(body)
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d", status)
	}
	return e
}

// Client issues one HTTP round trip per operation against the backend.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	collector  *perf.Collector
	metrics    *Metrics
	validate   *validator.Validate
	newID      func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client. The client passed in is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each call. Zero keeps the http.Client's own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithCollector records every call to the perf dashboard.
func WithCollector(pc *perf.Collector) Option {
	return func(c *Client) { c.collector = pc }
}

// WithMetrics records prometheus counters and latency histograms.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithResponseValidation turns schema checks on decoded responses on or off.
func WithResponseValidation(enabled bool) Option {
	return func(c *Client) {
		if enabled {
			c.validate = validator.New(validator.WithRequiredStructEnabled())
		} else {
			c.validate = nil
		}
	}
}

// New creates a client for baseURL.
// PRE: baseURL is an absolute http(s) URL; empty uses DefaultBaseURL
// POST: Returns a client with response validation on and no timeout
func New(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		newID:      func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// BaseURL returns the backend origin the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// call describes one request. Route is the low-cardinality template used in metrics.
type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
}

// request performs a JSON round trip and decodes the body into out.
// An empty body decodes to nothing and leaves out untouched.
// PRE: ctx is valid
// POST: Returns *APIError for non-2xx, ErrInvalidResponse for undecodable 2xx bodies
func (c *Client) request(ctx context.Context, cl call, out any) error {
	var reader io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", cl.method, cl.route, err)
		}
		reader = bytes.NewReader(b)
	}

	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", cl.method, cl.route, err)
	}
	reqID := c.newID()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(cl, reqID, 0, start)
		return fmt.Errorf("%s %s: %w", cl.method, cl.route, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	c.observe(cl, reqID, resp.StatusCode, start)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", cl.method, cl.route, err)
	}
	raw = bytes.TrimSpace(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw)
	}
	if len(raw) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, cl.method, cl.route, err)
	}
	return nil
}

// observe logs, records to the perf collector and updates metrics.
func (c *Client) observe(cl call, reqID string, status int, start time.Time) {
	elapsed := time.Since(start)
	durationMs := float64(elapsed.Microseconds()) / 1000.0
	label := cl.method + " " + cl.route

	if status == 0 || status >= 400 {
		slog.Warn("upstream_failed", "request_id", reqID, "call", label, "status", status, "duration_ms", durationMs)
	} else {
		slog.Debug("upstream", "request_id", reqID, "call", label, "status", status, "duration_ms", durationMs)
	}

	c.collector.Record(perf.Entry{
		Kind:       perf.KindUpstream,
		Path:       label,
		StatusCode: status,
		DurationMs: durationMs,
		Timestamp:  start,
	})
	c.metrics.observe(cl.route, cl.method, status, elapsed)
}

// check validates a decoded wire value when response validation is on.
func (c *Client) check(v any) error {
	if c.validate == nil {
		return nil
	}
	if err := c.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
