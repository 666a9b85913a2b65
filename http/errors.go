package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"
)

// Sentinel errors for transport operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker for a host is open.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	// ErrMissingAPIKey is returned by New when no API key is configured.
	ErrMissingAPIKey = errors.New("api key required")
)

// parseRetryAfter extracts the Retry-After header value.
// Returns 0 if the header is absent or unparseable.
func parseRetryAfter(header http.Header) time.Duration {
	retryAfter := header.Get("Retry-After")
	if retryAfter == "" {
		return 0
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(retryAfter); err == nil {
		return time.Until(t)
	}

	return 0
}

// isRateLimitStatus reports whether the status signals throttling.
// The Data API uses 403 for quota and key errors, so only 429 and 503 count.
func isRateLimitStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}
