package ytscrape

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytscrape/config"
)

// channelServer serves a channel "UCaaaaaaaaaaaaaaaaaaaaaa" with the given
// descriptions, three uploads per page.
func channelServer(t *testing.T, descriptions []string) *httptest.Server {
	t.Helper()
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		if q.Get("key") != "test-key" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{
				"code": 400, "message": "API key not valid. Please pass a valid API key.",
				"errors": []any{map[string]any{"reason": "keyInvalid", "message": "bad key"}},
			}})
			return
		}

		switch strings.TrimPrefix(r.URL.Path, "/youtube/v3/") {
		case "channels":
			json.NewEncoder(w).Encode(map[string]any{"items": []any{map[string]any{
				"id":             q.Get("id"),
				"contentDetails": map[string]any{"relatedPlaylists": map[string]any{"uploads": "UUtest"}},
			}}})
		case "playlistItems":
			var start int
			fmt.Sscan(q.Get("pageToken"), &start)
			end := min(start+3, len(descriptions))
			items := []any{}
			for i := start; i < end; i++ {
				items = append(items, map[string]any{"contentDetails": map[string]any{"videoId": fmt.Sprintf("v%d", i)}})
			}
			resp := map[string]any{"items": items, "pageInfo": map[string]any{"totalResults": len(descriptions)}}
			if end < len(descriptions) {
				resp["nextPageToken"] = fmt.Sprint(end)
			}
			json.NewEncoder(w).Encode(resp)
		case "videos":
			var ids []string
			for _, v := range q["id"] {
				ids = append(ids, strings.Split(v, ",")...)
			}
			items := []any{}
			for _, id := range ids {
				var i int
				fmt.Sscanf(id, "v%d", &i)
				items = append(items, map[string]any{
					"id":      id,
					"snippet": map[string]any{"title": id, "description": descriptions[i]},
				})
			}
			json.NewEncoder(w).Encode(map[string]any{"items": items})
		default:
			http.NotFound(w, r)
		}
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.ChannelID = "UCaaaaaaaaaaaaaaaaaaaaaa"
	cfg.Patterns = []string{`https://dropbox\.com/s/\w+`}
	cfg.RPS = 0
	cfg.MaxRetries = 1
	cfg.InitialBackoff = config.Duration(time.Millisecond)
	cfg.MaxBackoff = config.Duration(time.Millisecond)
	return cfg
}

func TestScrape(t *testing.T) {
	srv := channelServer(t, []string{
		"https://dropbox.com/s/one",
		"nothing",
		"see https://dropbox.com/s/two and https://dropbox.com/s/ignored",
		"",
		"https://dropbox.com/s/three",
	})

	var out bytes.Buffer
	res, err := Scrape(context.Background(), testConfig(), &out, WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	assert.Equal(t, "https://dropbox.com/s/one\nhttps://dropbox.com/s/two\nhttps://dropbox.com/s/three\n", out.String())
	assert.Equal(t, 5, res.VideoCount)
	assert.Equal(t, 3, res.MatchCount())
	// 1 channel + 2 playlist pages + 1 videos batch
	assert.Equal(t, 4, res.QuotaUsed)
}

func TestScrapeConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"missing key", func(c *config.Config) { c.APIKey = "" }, config.ErrMissingAPIKey},
		{"missing channel", func(c *config.Config) { c.ChannelID = "" }, config.ErrMissingChannel},
		{"missing pattern", func(c *config.Config) { c.Patterns = nil }, config.ErrMissingPattern},
		{"bad channel", func(c *config.Config) { c.ChannelID = "not a channel!" }, ErrInvalidChannel},
		{"bad pattern", func(c *config.Config) { c.Patterns = []string{"("} }, ErrInvalidPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			res, err := Scrape(context.Background(), cfg, &bytes.Buffer{}, WithEndpoint("http://127.0.0.1:1/"))
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrConfig)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, IsRetryable(err))
		})
	}
}

func TestScrapeBadKey(t *testing.T) {
	srv := channelServer(t, []string{"x"})
	cfg := testConfig()
	cfg.APIKey = "wrong"

	res, err := Scrape(context.Background(), cfg, &bytes.Buffer{}, WithEndpoint(srv.URL+"/"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)
	assert.False(t, errors.Is(err, ErrConfig))
	assert.False(t, IsRetryable(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "resolve channel", apiErr.Op)
	assert.Nil(t, res.Result)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"auth", &APIError{Op: "resolve channel", Err: fmt.Errorf("%w: bad key", ErrAuth)}, false},
		{"quota", fmt.Errorf("%w: daily", ErrQuotaExceeded), false},
		{"not found", &APIError{Op: "list playlist", Err: ErrNotFound}, false},
		{"channel not found", ErrChannelNotFound, false},
		{"no uploads", ErrNoUploadsPlaylist, false},
		{"invalid channel", ErrInvalidChannel, false},
		{"invalid pattern", ErrInvalidPattern, false},
		{"config", fmt.Errorf("%w: missing key", ErrConfig), false},
		{"canceled", context.Canceled, false},
		{"rate limited", fmt.Errorf("%w: slow down", ErrRateLimited), true},
		{"transient", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
