package youtube

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// ScraperConfig tunes the Scraper.
type ScraperConfig struct {
	// PageSize is the playlistItems.list page size (1-50, 0 = 50).
	PageSize int64
	// BatchSize is the number of ids per videos.list call (1-50, 0 = 50).
	BatchSize int
	// Logger receives progress messages. The zero value discards them.
	Logger zerolog.Logger
}

// Scraper runs the full pipeline for one channel: resolve the uploads
// playlist, page through it, fetch metadata in batches, then print matches.
type Scraper struct {
	svc       Service
	out       io.Writer
	paginator *Paginator
	fetcher   *Fetcher
	log       zerolog.Logger
}

// NewScraper creates a scraper writing one match per line to out.
func NewScraper(svc Service, out io.Writer, cfg ScraperConfig) *Scraper {
	return &Scraper{
		svc:       svc,
		out:       out,
		paginator: NewPaginator(svc, cfg.PageSize, cfg.Logger),
		fetcher:   NewFetcher(svc, cfg.BatchSize, cfg.Logger),
		log:       cfg.Logger,
	}
}

// PatternMatches groups the matches produced by one pattern.
type PatternMatches struct {
	Pattern string   `json:"pattern"`
	Matches []string `json:"matches"`
}

// Result summarizes a run.
type Result struct {
	Channel           string           `json:"channel"`
	UploadsPlaylistID string           `json:"uploads_playlist_id"`
	VideoCount        int              `json:"video_count"`
	RecordCount       int              `json:"record_count"`
	Patterns          []PatternMatches `json:"patterns"`
	Started           time.Time        `json:"started"`
	Duration          time.Duration    `json:"duration"`
}

// Empty reports whether the channel had no uploads.
func (r *Result) Empty() bool { return r.VideoCount == 0 }

// MatchCount returns the number of matches across all patterns.
func (r *Result) MatchCount() int {
	n := 0
	for _, p := range r.Patterns {
		n += len(p.Matches)
	}
	return n
}

type quotaReporter interface {
	QuotaUsed() int
}

// Run scrapes ref and writes every match of patterns to the output, pattern
// by pattern, in video discovery order. A channel without uploads is a
// successful run with an empty Result.
func (s *Scraper) Run(ctx context.Context, ref ChannelRef, patterns PatternSet) (*Result, error) {
	res := &Result{Channel: ref.String(), Started: time.Now()}
	defer func() { res.Duration = time.Since(res.Started) }()

	s.log.Info().Msg("Starting scrape")
	s.log.Info().Str("channel", ref.String()).Msgf("Getting channel: %s", ref)

	playlistID, err := s.svc.UploadsPlaylistID(ctx, ref)
	if err != nil {
		return nil, &APIError{Op: "resolve channel", Ref: ref.String(), Err: err}
	}
	res.UploadsPlaylistID = playlistID
	s.log.Info().Str("playlist", playlistID).Msgf("Getting playlist ID: %s", playlistID)

	ids, err := s.paginator.All(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	res.VideoCount = len(ids)
	if len(ids) == 0 {
		s.log.Info().Msgf("The channel %s has no uploaded videos", ref)
		return res, nil
	}

	records, err := s.fetcher.FetchAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	res.RecordCount = len(records)

	groups, ok := MatchAll(records, patterns)
	for re, matches := range groups {
		s.log.Info().Str("pattern", re.String()).Msgf("Processing %d videos: %s", len(records), re)
		if !ok {
			s.log.Warn().
				Str("channel", ref.String()).
				Str("pattern", re.String()).
				Int("videos", res.VideoCount).
				Msg("got empty data list")
		}

		pm := PatternMatches{Pattern: re.String(), Matches: []string{}}
		for m := range matches {
			if _, err := fmt.Fprintln(s.out, m); err != nil {
				return nil, fmt.Errorf("write match: %w", err)
			}
			pm.Matches = append(pm.Matches, m)
		}
		res.Patterns = append(res.Patterns, pm)
	}

	if q, ok := s.svc.(quotaReporter); ok {
		s.log.Debug().Int("units", q.QuotaUsed()).Msg("Estimated quota used")
	}
	return res, nil
}
