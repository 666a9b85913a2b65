package ytscrape

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"ytscrape/config"
	transport "ytscrape/http"
	"ytscrape/youtube"
)

// Result summarizes a scrape.
type Result struct {
	*youtube.Result
	// QuotaUsed estimates the Data API quota units spent.
	QuotaUsed int
}

type options struct {
	logger   zerolog.Logger
	endpoint string
}

// Option customizes Scrape.
type Option func(*options)

// WithLogger sets the logger receiving progress messages.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithEndpoint points the Data API client at a different base URL.
func WithEndpoint(url string) Option {
	return func(o *options) { o.endpoint = url }
}

// Scrape runs a full scrape described by cfg and writes one match per line
// to w. The returned Result carries the quota estimate even when err is
// non-nil and a partial run happened.
func Scrape(ctx context.Context, cfg *config.Config, w io.Writer, opts ...Option) (*Result, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := cfg.RequireRun(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	ref, err := youtube.ParseChannelRef(cfg.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	patterns, err := youtube.CompilePatterns(cfg.Patterns)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	tcfg := transport.DefaultConfig()
	tcfg.APIKey = cfg.APIKey
	tcfg.Timeout = cfg.RequestTimeout.Std()
	tcfg.RateLimiter.RPS = cfg.RPS
	client, err := transport.New(tcfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	defer client.Close()

	svc, err := youtube.NewAPIService(ctx, youtube.APIConfig{
		HTTPClient: client.HTTPClient(),
		Endpoint:   o.endpoint,
		Retry:      cfg.RetryConfig(),
		Logger:     o.logger,
	})
	if err != nil {
		return nil, err
	}

	scraper := youtube.NewScraper(svc, w, youtube.ScraperConfig{
		PageSize:  cfg.PageSize,
		BatchSize: cfg.BatchSize,
		Logger:    o.logger,
	})
	res, err := scraper.Run(ctx, ref, patterns)
	return &Result{Result: res, QuotaUsed: svc.QuotaUsed()}, err
}
