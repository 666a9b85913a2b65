package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	transport "ytscrape/http"
	"ytscrape/internal/retry"
)

// APIConfig configures an APIService.
type APIConfig struct {
	// HTTPClient carries the API key and pacing, see transport.Client.
	// When nil, APIKey is passed to the Google client directly.
	HTTPClient *http.Client
	// APIKey is used only when HTTPClient is nil.
	APIKey string
	// Endpoint overrides the API base URL. Used by tests.
	Endpoint string
	// Retry controls transient failure retries.
	Retry retry.Config
	// Logger receives per-call debug messages.
	Logger zerolog.Logger
}

// APIService implements Service on the YouTube Data API v3.
type APIService struct {
	service *ytapi.Service
	retry   retry.Config
	log     zerolog.Logger

	mu        sync.Mutex
	quotaUsed int
}

// NewAPIService creates a Data API backed Service.
func NewAPIService(ctx context.Context, cfg APIConfig) (*APIService, error) {
	var opts []option.ClientOption
	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, fmt.Errorf("%w: api key required", ErrAuth)
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := ytapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &APIService{
		service: service,
		retry:   cfg.Retry,
		log:     cfg.Logger,
	}, nil
}

// UploadsPlaylistID looks up the channel's contentDetails.relatedPlaylists.uploads.
func (a *APIService) UploadsPlaylistID(ctx context.Context, ref ChannelRef) (string, error) {
	resp, err := callAPI(ctx, a, "channels.list", func(ctx context.Context) (*ytapi.ChannelListResponse, error) {
		call := a.service.Channels.List([]string{"contentDetails"}).
			Fields("items(id,contentDetails/relatedPlaylists/uploads)").
			Context(ctx)
		if ref.Handle != "" {
			call = call.ForHandle(ref.Handle)
		} else {
			call = call.Id(ref.ID)
		}
		return call.Do()
	})
	if err != nil {
		return "", err
	}

	if len(resp.Items) == 0 {
		return "", fmt.Errorf("%w: %s", ErrChannelNotFound, ref)
	}
	ch := resp.Items[0]
	if ch.ContentDetails == nil || ch.ContentDetails.RelatedPlaylists == nil || ch.ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("%w: %s", ErrNoUploadsPlaylist, ref)
	}
	return ch.ContentDetails.RelatedPlaylists.Uploads, nil
}

// ListPlaylistItems fetches one page of playlist video ids.
func (a *APIService) ListPlaylistItems(ctx context.Context, playlistID string, pageSize int64, pageToken string) (*Page, error) {
	resp, err := callAPI(ctx, a, "playlistItems.list", func(ctx context.Context) (*ytapi.PlaylistItemListResponse, error) {
		call := a.service.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(pageSize).
			Fields("nextPageToken", "pageInfo", "items/contentDetails/videoId").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		return call.Do()
	})
	if err != nil {
		return nil, err
	}

	page := &Page{
		VideoIDs:      make([]string, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	if resp.PageInfo != nil {
		page.TotalResults = resp.PageInfo.TotalResults
		page.ResultsPerPage = resp.PageInfo.ResultsPerPage
	}
	for _, item := range resp.Items {
		if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
			page.VideoIDs = append(page.VideoIDs, item.ContentDetails.VideoId)
		}
	}
	return page, nil
}

// ListVideos fetches title and description for at most MaxBatchSize ids.
func (a *APIService) ListVideos(ctx context.Context, ids []string) ([]VideoRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(ids), MaxBatchSize)
	}

	resp, err := callAPI(ctx, a, "videos.list", func(ctx context.Context) (*ytapi.VideoListResponse, error) {
		return a.service.Videos.List([]string{"snippet"}).
			Id(ids...).
			Fields("items(id,snippet(title,description))").
			Context(ctx).
			Do()
	})
	if err != nil {
		return nil, err
	}

	records := make([]VideoRecord, 0, len(resp.Items))
	for _, v := range resp.Items {
		rec := VideoRecord{ID: v.Id}
		if v.Snippet != nil {
			rec.Title = v.Snippet.Title
			rec.Description = v.Snippet.Description
		}
		records = append(records, rec)
	}
	return records, nil
}

// QuotaUsed returns the estimated quota units spent by this service.
// Every list call used here costs one unit.
func (a *APIService) QuotaUsed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quotaUsed
}

func (a *APIService) trackQuotaUsage(units int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quotaUsed += units
}

// callAPI runs fn with retries, classifying failures into sentinel errors.
func callAPI[T any](ctx context.Context, a *APIService, method string, fn func(context.Context) (T, error)) (T, error) {
	attempt := 0
	return retry.DoValue(ctx, a.retry, nil, func(ctx context.Context) (T, error) {
		attempt++
		v, err := fn(ctx)
		if err != nil {
			err = classifyError(ctx, err)
			a.log.Debug().Err(err).Str("method", method).Int("attempt", attempt).Msg("API call failed")
			return v, err
		}
		a.trackQuotaUsage(1)
		return v, nil
	})
}

// classifyError maps a Data API failure onto sentinel errors. Failures that
// cannot succeed on retry are wrapped with retry.Permanent.
func classifyError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return retry.Permanent(fmt.Errorf("%w: %w", ErrNetworkTimeout, err))
		}
		return retry.Permanent(err)
	}

	if errors.Is(err, transport.ErrCircuitOpen) {
		return retry.Permanent(err)
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	reasons := errorReasons(gerr)
	switch {
	case gerr.Code == http.StatusUnauthorized,
		reasons["keyInvalid"], reasons["keyExpired"], reasons["accessNotConfigured"],
		reasons["ipRefererBlocked"], strings.Contains(gerr.Message, "API key"):
		return retry.Permanent(fmt.Errorf("%w: %w", ErrAuth, err))
	case reasons["quotaExceeded"], reasons["dailyLimitExceeded"]:
		return retry.Permanent(fmt.Errorf("%w: %w", ErrQuotaExceeded, err))
	case gerr.Code == http.StatusTooManyRequests,
		reasons["rateLimitExceeded"], reasons["userRateLimitExceeded"]:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case gerr.Code == http.StatusNotFound:
		return retry.Permanent(fmt.Errorf("%w: %w", ErrNotFound, err))
	case gerr.Code >= 500:
		return err
	default:
		return retry.Permanent(err)
	}
}

func errorReasons(gerr *googleapi.Error) map[string]bool {
	reasons := make(map[string]bool, len(gerr.Errors))
	for _, item := range gerr.Errors {
		reasons[item.Reason] = true
	}
	return reasons
}
