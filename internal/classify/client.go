package classify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/dshills/vehicleclass/internal/sanitize"
)

// Timeout bounds every call to the service. There is no retry.
const Timeout = 15 * time.Second

// DefaultBaseURL is the documented fallback service address.
const DefaultBaseURL = "https://vehicle-type-classification.onrender.com"

const maxBodyBytes = 10 * 1024 * 1024 // 10 MiB

// Client talks to the classification service. It holds no per-call state and
// is safe for concurrent use.
type Client struct {
	baseURL    string
	origin     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. A zero Timeout on hc is replaced
// by Timeout in the client's own copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			cp := *hc
			c.httpClient = &cp
		}
	}
}

// WithOrigin makes the client send an Origin header and enforce the
// service's CORS answer the way a browser would.
func WithOrigin(origin string) Option {
	return func(c *Client) { c.origin = strings.TrimRight(origin, "/") }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a Client for the service rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: host is required", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.httpClient.Timeout == 0 {
		c.httpClient.Timeout = Timeout
	}
	return c, nil
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

type errorPayload struct {
	Error string `json:"error"`
}

type predictPayload struct {
	Prediction
	Error string `json:"error"`
}

// Classify submits req to POST /predict. Every failure is an *Error.
func (c *Client) Classify(ctx context.Context, req Request) (*Prediction, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, unknown("marshaling request: %w", err)
	}

	status, respBytes, err := c.do(ctx, http.MethodPost, "/predict", body)
	if err != nil {
		return nil, err
	}

	if status < 200 || status > 299 {
		return nil, rejectedFromBody(status, respBytes)
	}

	var p predictPayload
	if err := json.Unmarshal(respBytes, &p); err != nil {
		return nil, unknown("parsing response JSON (HTTP %d, body: %s): %w", status, sanitize.Truncate(string(respBytes), 200), err)
	}
	if p.Error != "" {
		return nil, rejected(status, sanitize.Message(p.Error))
	}
	if p.Label == "" {
		return nil, unknown("response has no prediction")
	}
	if p.Confidence != nil {
		conf := *p.Confidence
		if math.IsNaN(conf) || conf < 0 || conf > 1 {
			return nil, unknown("confidence %g outside [0,1]", conf)
		}
	}

	pred := p.Prediction
	return &pred, nil
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.getJSON(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ModelInfo calls GET /model-info.
func (c *Client) ModelInfo(ctx context.Context) (*ModelInfo, error) {
	var m ModelInfo
	if err := c.getJSON(ctx, "/model-info", &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	status, respBytes, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return rejectedFromBody(status, respBytes)
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return unknown("parsing %s response: %w", path, err)
	}
	return nil
}

// do performs exactly one HTTP exchange and returns the status and body.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return 0, nil, unknown("creating HTTP request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.origin != "" {
		httpReq.Header.Set("Origin", c.origin)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return 0, nil, transportError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("response received",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if c.origin != "" && !allowsOrigin(resp.Header.Get("Access-Control-Allow-Origin"), c.origin) {
		return 0, nil, &Error{
			Kind: KindCrossOriginBlocked,
			Err:  fmt.Errorf("response from %s does not allow origin %s", c.baseURL, c.origin),
		}
	}

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, transportError(fmt.Errorf("reading response body: %w", err))
	}
	return resp.StatusCode, respBytes, nil
}

// rejectedFromBody builds a ServerRejected error from a non-2xx response,
// preferring the payload's error field.
func rejectedFromBody(status int, body []byte) *Error {
	var ep errorPayload
	if err := json.Unmarshal(body, &ep); err == nil && ep.Error != "" {
		return rejected(status, sanitize.Message(ep.Error))
	}
	return rejected(status, "")
}

func allowsOrigin(header, origin string) bool {
	header = strings.TrimSpace(header)
	return header == "*" || strings.EqualFold(strings.TrimRight(header, "/"), origin)
}
