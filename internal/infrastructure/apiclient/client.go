// Package apiclient is the typed HTTP client of the inventory REST backend.
// It includes bearer authentication, retry logic for idempotent calls and error decoding.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TokenSource supplies the bearer token attached to every request.
// An empty token means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource returning a fixed token
type StaticToken string

// Token implements TokenSource
func (t StaticToken) Token() string { return string(t) }

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxRetries  int
	RetryDelay  time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	ShouldRetry func(resp *http.Response, err error) bool
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		RetryDelay: 500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Multiplier: 2.0,
		ShouldRetry: func(resp *http.Response, err error) bool {
			if err != nil {
				return true
			}
			return resp.StatusCode == http.StatusBadGateway ||
				resp.StatusCode == http.StatusServiceUnavailable ||
				resp.StatusCode == http.StatusGatewayTimeout ||
				resp.StatusCode == http.StatusTooManyRequests
		},
	}
}

// Client is the low level HTTP client shared by the typed entity clients.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	headers     map[string]string
	tokens      TokenSource
	retryConfig RetryConfig
	logger      *zap.Logger
	mu          sync.RWMutex
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetryConfig sets the retry policy
func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) {
		if cfg.ShouldRetry == nil {
			cfg.ShouldRetry = DefaultRetryConfig().ShouldRetry
		}
		if cfg.Multiplier <= 0 {
			cfg.Multiplier = 1
		}
		c.retryConfig = cfg
	}
}

// WithTokenSource sets the bearer token provider
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the backend rooted at baseURL (e.g. http://localhost:8080/api).
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", baseURL)
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     u,
		headers:     map[string]string{"Accept": "application/json"},
		retryConfig: DefaultRetryConfig(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request represents an HTTP request to be executed.
type Request struct {
	Method      string
	Path        string
	QueryParams url.Values
	Headers     map[string]string
	// Body is marshaled as JSON when RawBody is nil
	Body        any
	RawBody     []byte
	ContentType string
}

// Response represents a successful HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Do executes an HTTP request. Idempotent methods are retried according to the
// retry policy; any non-2xx answer is returned as *APIError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	u, err := c.buildURL(req.Path, req.QueryParams)
	if err != nil {
		return nil, fmt.Errorf("building URL: %w", err)
	}

	payload := req.RawBody
	contentType := req.ContentType
	if payload == nil && req.Body != nil {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		contentType = "application/json"
	}

	maxRetries := 0
	if isIdempotent(req.Method) {
		maxRetries = c.retryConfig.MaxRetries
	}

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.calculateBackoff(attempt)):
			}
		}

		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
		if err != nil {
			return nil, fmt.Errorf("creating HTTP request: %w", err)
		}
		c.setHeaders(httpReq, req.Headers)
		if contentType != "" {
			httpReq.Header.Set("Content-Type", contentType)
		}

		start := time.Now()
		httpResp, err := c.httpClient.Do(httpReq)
		duration := time.Since(start)

		if attempt < maxRetries && ctx.Err() == nil && c.retryConfig.ShouldRetry(httpResp, err) {
			if httpResp != nil {
				_, _ = io.Copy(io.Discard, httpResp.Body)
				httpResp.Body.Close()
			}
			c.logger.Debug("Retrying request",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
		}

		data, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", err)
		}

		c.logger.Debug("Backend call",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("status", httpResp.StatusCode),
			zap.Duration("duration", duration),
		)

		if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
			return nil, newAPIError(req.Method, req.Path, httpResp.StatusCode, data)
		}
		return &Response{
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Body:       data,
			Duration:   duration,
		}, nil
	}
}

// Get performs a GET request and decodes the JSON answer into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.doJSON(ctx, Request{Method: http.MethodGet, Path: path, QueryParams: query}, out)
}

// Post performs a POST request and decodes the JSON answer into out (when non-nil).
func (c *Client) Post(ctx context.Context, path string, query url.Values, body, out any) error {
	return c.doJSON(ctx, Request{Method: http.MethodPost, Path: path, QueryParams: query, Body: body}, out)
}

// Put performs a PUT request and decodes the JSON answer into out (when non-nil).
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
	return err
}

func (c *Client) doJSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", req.Method, req.Path, err)
	}
	return nil
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.baseURL.String(), "/")
}

// SetHeader sets a default header for all requests.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[key] = value
}

// buildURL resolves path against the base URL. Paths are relative to the API root
// so "/parts" and "parts" both map to <base>/parts.
func (c *Client) buildURL(path string, query url.Values) (*url.URL, error) {
	u, err := c.baseURL.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u, nil
}

func (c *Client) setHeaders(req *http.Request, custom map[string]string) {
	c.mu.RLock()
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	c.mu.RUnlock()

	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for k, v := range custom {
		req.Header.Set(k, v)
	}
}

// calculateBackoff calculates the backoff delay for the given attempt.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryConfig.RetryDelay) * math.Pow(c.retryConfig.Multiplier, float64(attempt-1))
	if c.retryConfig.MaxDelay > 0 && delay > float64(c.retryConfig.MaxDelay) {
		delay = float64(c.retryConfig.MaxDelay)
	}
	// ±25% jitter
	jitter := delay * 0.25
	delay = delay + (rand.Float64()*2-1)*jitter
	return time.Duration(delay)
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut:
		return true
	}
	return false
}
