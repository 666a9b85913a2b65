// Package http provides the HTTP transport used by the YouTube Data API
// client. It injects the API key, paces requests, and fails fast through a
// circuit breaker when the API keeps returning transient failures.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Client owns the *http.Client handed to the Data API service.
type Client struct {
	base           *http.Client
	config         *Config
	rateLimiter    *RateLimiter
	circuitBreaker *CircuitBreaker
}

// Config holds transport configuration.
type Config struct {
	// APIKey is appended to every request as the "key" query parameter.
	APIKey string

	// Timeout for individual HTTP requests
	Timeout time.Duration

	// User agent for HTTP requests
	UserAgent string

	// Rate limiter configuration
	RateLimiter RateLimiterConfig

	// Circuit breaker configuration
	CircuitBreaker CircuitBreakerConfig

	// Connection pool configuration
	Transport TransportConfig
}

// TransportConfig configures the HTTP transport (connection pooling).
type TransportConfig struct {
	// MaxIdleConns is the maximum number of idle connections across all hosts.
	MaxIdleConns int
	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int
	// IdleConnTimeout is how long an idle connection may remain open.
	IdleConnTimeout time.Duration
	// ForceAttemptHTTP2 enables HTTP/2 on custom dialers.
	ForceAttemptHTTP2 bool
}

// DefaultConfig returns sensible defaults. The API key must still be set.
func DefaultConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		UserAgent:      "ytscrape/1.0",
		RateLimiter:    DefaultRateLimiterConfig(),
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		Transport:      DefaultTransportConfig(),
	}
}

// DefaultTransportConfig returns sensible defaults for a single API host.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
}

// New creates a client for the given configuration.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		config:         cfg,
		rateLimiter:    NewRateLimiter(cfg.RateLimiter),
		circuitBreaker: NewCircuitBreaker(cfg.CircuitBreaker),
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Transport.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
		ForceAttemptHTTP2:   cfg.Transport.ForceAttemptHTTP2,
	}

	c.base = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &roundTripper{next: transport, client: c},
	}
	return c, nil
}

// HTTPClient returns the client to pass to option.WithHTTPClient.
func (c *Client) HTTPClient() *http.Client {
	return c.base
}

// RateLimiter exposes the limiter for inspection.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// CircuitBreaker exposes the breaker for inspection.
func (c *Client) CircuitBreaker() *CircuitBreaker {
	return c.circuitBreaker
}

// Close releases idle connections.
func (c *Client) Close() error {
	if c.base != nil {
		c.base.CloseIdleConnections()
	}
	return nil
}

type roundTripper struct {
	next   http.RoundTripper
	client *Client
}

func (t *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	c := t.client
	host := req.URL.Host

	if err := c.circuitBreaker.Allow(host); err != nil {
		return nil, err
	}
	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	r := req.Clone(req.Context())
	q := r.URL.Query()
	q.Set("key", c.config.APIKey)
	r.URL.RawQuery = q.Encode()
	if r.Header.Get("User-Agent") == "" && c.config.UserAgent != "" {
		r.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := t.next.RoundTrip(r)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.circuitBreaker.RecordFailure(host)
		}
		return nil, err
	}

	switch {
	case isRateLimitStatus(resp.StatusCode):
		c.rateLimiter.RecordRateLimitError(parseRetryAfter(resp.Header))
		c.circuitBreaker.RecordFailure(host)
	case resp.StatusCode >= 500:
		c.circuitBreaker.RecordFailure(host)
	default:
		// 4xx responses are the caller's problem, not the host's.
		c.rateLimiter.RecordSuccess()
		c.circuitBreaker.RecordSuccess(host)
	}
	return resp, nil
}
