// Package youtube walks a channel's uploads on the YouTube Data API, fetches
// video metadata in batches, and extracts pattern matches from descriptions.
package youtube

import (
	"context"
	"errors"
)

// Sentinel errors for scraping operations.
var (
	ErrChannelNotFound   = errors.New("youtube: channel not found")
	ErrNoUploadsPlaylist = errors.New("youtube: channel has no uploads playlist")
	ErrNotFound          = errors.New("youtube: resource not found")
	ErrAuth              = errors.New("youtube: authentication failed")
	ErrQuotaExceeded     = errors.New("youtube: quota exceeded")
	ErrRateLimited       = errors.New("youtube: rate limited")
	ErrNetworkTimeout    = errors.New("youtube: network timeout")
	ErrInvalidChannel    = errors.New("youtube: invalid channel reference")
	ErrInvalidPattern    = errors.New("youtube: invalid pattern")
	ErrPaginationLoop    = errors.New("youtube: page token repeated")
	ErrBatchTooLarge     = errors.New("youtube: too many ids in one request")
)

const (
	// MaxBatchSize is the Data API cap on ids per videos.list call.
	MaxBatchSize = 50
	// MaxPageSize is the Data API cap on playlistItems.list maxResults.
	MaxPageSize = 50
)

// Service is the remote metadata service the scraper depends on.
// APIService implements it on top of the YouTube Data API v3.
type Service interface {
	// UploadsPlaylistID resolves a channel to its uploads playlist.
	UploadsPlaylistID(ctx context.Context, ref ChannelRef) (string, error)

	// ListPlaylistItems returns one page of a playlist. An empty pageToken
	// requests the first page.
	ListPlaylistItems(ctx context.Context, playlistID string, pageSize int64, pageToken string) (*Page, error)

	// ListVideos returns title and description for up to MaxBatchSize ids.
	// Unknown or deleted ids are omitted from the result.
	ListVideos(ctx context.Context, ids []string) ([]VideoRecord, error)
}

// Page is a single page of a playlist listing.
type Page struct {
	// VideoIDs are the ids on this page, in listing order.
	VideoIDs []string
	// NextPageToken continues the listing. Empty means this was the last page.
	NextPageToken string
	// TotalResults is the item count the API reports for the whole playlist.
	TotalResults int64
	// ResultsPerPage is the page size the API applied.
	ResultsPerPage int64
}

// VideoRecord is the metadata matched against patterns.
type VideoRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// APIError wraps a failed remote call with what was being done.
// Use errors.As() to extract it:
//
//	var apiErr *youtube.APIError
//	if errors.As(err, &apiErr) {
//		fmt.Printf("%s %s failed: %v\n", apiErr.Op, apiErr.Ref, apiErr.Err)
//	}
type APIError struct {
	// Op is the failed operation ("resolve channel", "list playlist", "list videos").
	Op string
	// Ref is the channel, playlist, or batch the operation was for.
	Ref string
	// Err is the underlying error.
	Err error
}

// Error returns a string representation of the API error.
func (e *APIError) Error() string {
	return "youtube: " + e.Op + " " + e.Ref + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is() and errors.As().
func (e *APIError) Unwrap() error { return e.Err }
