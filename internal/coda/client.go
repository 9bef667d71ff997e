// Package coda is a small client for the Coda REST API (https://coda.io/developers/apis/v1).
package coda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dusk-indust/coda-mcp/internal/logger"
	"github.com/dusk-indust/coda-mcp/internal/metrics"
)

// DefaultBaseURL is the public Coda API endpoint.
const DefaultBaseURL = "https://coda.io/apis/v1"

const (
	defaultTimeout        = 60 * time.Second
	defaultConnectTimeout = 30 * time.Second
	defaultUserAgent      = "coda-mcp"
	maxRedirects          = 10

	// DefaultMaxResponseBytes caps any single response body.
	DefaultMaxResponseBytes int64 = 64 << 20
)

// ErrResponseTooLarge is returned when a body exceeds the configured cap.
var ErrResponseTooLarge = errors.New("coda: response body too large")

// RedirectCheck vets each redirect hop of a download before it is followed.
type RedirectCheck func(next *url.URL) error

// Client executes authenticated requests against the Coda API.
// It is safe for concurrent use.
type Client struct {
	http      *http.Client
	baseURL   string
	token     string
	userAgent string
	limiter   *rate.Limiter
	maxBody   int64
	log       logger.Logger
	metrics   *metrics.Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the overall per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit throttles API requests to rps with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMaxResponseBytes caps response bodies at n bytes. Non-positive values
// keep the default.
func WithMaxResponseBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// WithMetrics records every round trip on m.
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for baseURL authenticated with token.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: defaultConnectTimeout}).DialContext

	c := &Client{
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: transport,
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		userAgent: defaultUserAgent,
		maxBody:   DefaultMaxResponseBytes,
		log:       logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get fetches path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON to path and decodes the response into out.
// 202 Accepted counts as success.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON to path and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE for path, discarding the response body.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// DownloadRaw performs an unauthenticated GET of an absolute URL, such as an
// export download link, and returns the body bytes unmodified. Callers are
// responsible for deciding whether rawURL may be fetched at all. When check
// is non-nil every redirect target must pass it; a failing hop aborts the
// download with an error wrapping the one check returned.
func (c *Client) DownloadRaw(ctx context.Context, rawURL string, check RedirectCheck) ([]byte, error) {
	c.log.Debug("Downloading from external URL", logger.String("url", rawURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("coda: create download request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	hc := *c.http
	hc.CheckRedirect = func(next *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if check != nil {
			return check(next.URL)
		}
		return nil
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.metrics.ObserveAPIRequest("DOWNLOAD", 0, time.Since(start))
		return nil, &RequestError{Method: http.MethodGet, Path: rawURL, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPIRequest("DOWNLOAD", resp.StatusCode, time.Since(start))

	data, err := c.readBody(resp.Body)
	if err != nil {
		return nil, &RequestError{Method: http.MethodGet, Path: rawURL, Err: err}
	}
	if !isSuccess(resp.StatusCode) {
		return nil, &APIError{Method: http.MethodGet, Path: rawURL, Status: resp.StatusCode, Body: string(data)}
	}

	c.log.Debug("Downloaded export content", logger.Int("bytes", len(data)))
	return data, nil
}

// do performs one authenticated JSON round trip.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("coda: marshal %s %s body: %w", method, path, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("coda: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return &RequestError{Method: method, Path: path, Err: err}
		}
	}

	c.log.Debug("Coda API request",
		logger.String("method", method),
		logger.String("url", req.URL.String()),
		logger.String("token", tokenPreview(c.token)),
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.ObserveAPIRequest(method, 0, time.Since(start))
		return &RequestError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	c.metrics.ObserveAPIRequest(method, resp.StatusCode, time.Since(start))

	respBody, err := c.readBody(resp.Body)
	if err != nil {
		return &RequestError{Method: method, Path: path, Err: err}
	}

	c.log.Debug("Coda API response",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
	)

	if !isSuccess(resp.StatusCode) {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(respBody)}
		if resp.StatusCode == http.StatusTooManyRequests {
			c.log.Warn("Rate limited by Coda API", logger.String("path", path))
		} else {
			c.log.Warn("Coda API error", logger.String("path", path), logger.Int("status", resp.StatusCode))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// readBody reads r up to the configured cap.
func (c *Client) readBody(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.maxBody)
	}
	return data, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// tokenPreview returns the first 8 characters of token, or a mask when the
// token is too short to show any of it.
func tokenPreview(token string) string {
	if len(token) > 8 {
		return token[:8] + "..."
	}
	return "***"
}
