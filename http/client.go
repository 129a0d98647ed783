// Package http provides HTTP client infrastructure for talking to the Birdsy
// API: JSON request/response helpers, streamed downloads, per-host request
// pacing and typed errors for non-2xx responses.
//
// The client never retries. Callers that need bounded attempts wrap calls
// with internal/retry.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client wraps an HTTP client with rate limiting and error classification.
type Client struct {
	base        *http.Client
	config      *Config
	rateLimiter *RateLimiter
}

// Config holds HTTP client configuration.
type Config struct {
	// Timeout bounds each buffered request (Do, DoJSON). Zero disables it.
	Timeout time.Duration

	// StreamTimeout bounds each streamed download. Zero disables it.
	StreamTimeout time.Duration

	// User agent for HTTP requests
	UserAgent string

	// Rate limiter configuration
	RateLimiter RateLimiterConfig

	// Connection pool configuration
	Transport TransportConfig
}

// TransportConfig configures the HTTP transport (connection pooling).
type TransportConfig struct {
	// MaxIdleConns is the maximum number of idle connections across all hosts.
	// Default: 10
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	// Default: 2
	MaxIdleConnsPerHost int

	// IdleConnTimeout is the maximum amount of time an idle connection can remain open.
	// Default: 90 seconds
	IdleConnTimeout time.Duration

	// ForceAttemptHTTP2 forces HTTP/2 for connections to servers that don't explicitly support it.
	// Default: true
	ForceAttemptHTTP2 bool
}

// DefaultConfig returns sensible defaults for HTTP client configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:       30 * time.Second,
		StreamTimeout: 0,
		UserAgent:     "birdsync/1.0",
		RateLimiter:   DefaultRateLimiterConfig(),
		Transport:     DefaultTransportConfig(),
	}
}

// DefaultTransportConfig returns sensible defaults for HTTP transport configuration.
// Requests are strictly sequential, so the pool stays small.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
}

// New creates a new HTTP client with the given configuration.
func New(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Transport.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
		ForceAttemptHTTP2:   cfg.Transport.ForceAttemptHTTP2,
	}

	// Timeouts are applied per call through the context so that streamed
	// downloads are not cut off by the API timeout.
	base := &http.Client{
		Transport: transport,
	}

	return &Client{
		base:        base,
		config:      cfg,
		rateLimiter: NewRateLimiter(cfg.RateLimiter),
	}
}

// Response represents an HTTP response with status code and body.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do performs an HTTP request and buffers the response body.
// Non-2xx responses are returned as *HTTPError.
func (c *Client) Do(ctx context.Context, method, urlStr string, body io.Reader, headers map[string]string) (*Response, error) {
	ctx, cancel := withTimeout(ctx, c.config.Timeout)
	defer cancel()

	resp, err := c.send(ctx, method, urlStr, body, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       respBody,
	}, nil
}

// DoJSON sends in (when non-nil) as a JSON body and decodes the response into
// out (when non-nil).
func (c *Client) DoJSON(ctx context.Context, method, urlStr string, in, out any, headers map[string]string) error {
	var body io.Reader
	merged := make(map[string]string, len(headers)+2)
	merged["Accept"] = "application/json"
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
		merged["Content-Type"] = "application/json"
	}
	for k, v := range headers {
		merged[k] = v
	}

	resp, err := c.Do(ctx, method, urlStr, body, merged)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// Stream performs a GET request and copies the response body into w without
// buffering it. It returns the number of bytes written.
func (c *Client) Stream(ctx context.Context, urlStr string, w io.Writer, headers map[string]string) (int64, error) {
	ctx, cancel := withTimeout(ctx, c.config.StreamTimeout)
	defer cancel()

	resp, err := c.send(ctx, http.MethodGet, urlStr, nil, headers)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("stream body: %w", err)
	}
	return n, nil
}

// send issues a single request. On success the caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, urlStr string, body io.Reader, headers map[string]string) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx, urlStr); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{
			Method:     method,
			URL:        urlStr,
			StatusCode: resp.StatusCode,
			Body:       bodyBytes,
		}
	}
	return resp, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Close closes the HTTP client connections and releases all resources.
func (c *Client) Close() error {
	if c.base != nil {
		c.base.CloseIdleConnections()
	}
	return nil
}
