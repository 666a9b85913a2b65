package ytscrape

import (
	"errors"

	"ytscrape/internal/retry"
	"ytscrape/youtube"
)

// ErrConfig marks errors caused by missing or invalid configuration.
var ErrConfig = errors.New("ytscrape: invalid configuration")

// Type aliases for convenient error handling.
type (
	// APIError wraps a failed Data API operation.
	APIError = youtube.APIError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrChannelNotFound indicates the YouTube channel does not exist.
	ErrChannelNotFound = youtube.ErrChannelNotFound
	// ErrNoUploadsPlaylist indicates the channel has no uploads playlist.
	ErrNoUploadsPlaylist = youtube.ErrNoUploadsPlaylist
	// ErrAuth indicates the API key was rejected.
	ErrAuth = youtube.ErrAuth
	// ErrQuotaExceeded indicates the daily API quota is spent.
	ErrQuotaExceeded = youtube.ErrQuotaExceeded
	// ErrRateLimited indicates the operation was rate limited.
	ErrRateLimited = youtube.ErrRateLimited
	// ErrNetworkTimeout indicates a network timeout occurred.
	ErrNetworkTimeout = youtube.ErrNetworkTimeout
	// ErrInvalidChannel indicates the channel reference could not be parsed.
	ErrInvalidChannel = youtube.ErrInvalidChannel
	// ErrInvalidPattern indicates a pattern failed to compile.
	ErrInvalidPattern = youtube.ErrInvalidPattern
	// ErrNotFound indicates the API reported a missing resource, such as
	// an uploads playlist that does not exist.
	ErrNotFound = youtube.ErrNotFound
)

// permanent lists failures a retry cannot fix.
var permanent = []error{
	ErrConfig,
	ErrAuth,
	ErrQuotaExceeded,
	ErrNotFound,
	ErrChannelNotFound,
	ErrNoUploadsPlaylist,
	ErrInvalidChannel,
	ErrInvalidPattern,
	youtube.ErrPaginationLoop,
	youtube.ErrBatchTooLarge,
}

// IsRetryable determines if an error should be retried.
// It returns false for permanent errors like ErrAuth.
func IsRetryable(err error) bool {
	for _, target := range permanent {
		if errors.Is(err, target) {
			return false
		}
	}
	return retry.IsRetryable(err)
}
