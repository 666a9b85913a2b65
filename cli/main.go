package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"ytscrape"
	"ytscrape/config"
	"ytscrape/internal/report"
	"ytscrape/youtube"
)

// Exit codes.
const (
	exitOK     = 0
	exitAPI    = 1
	exitConfig = 2
	exitAuth   = 3
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// patternList collects repeated -r flags.
type patternList []string

func (p *patternList) String() string { return strings.Join(*p, ", ") }

func (p *patternList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

type flags struct {
	configPath string
	apiKey     string
	channel    string
	patterns   patternList
	pageSize   int64
	batchSize  int
	timeout    time.Duration
	rps        float64
	report     string
	endpoint   string
	verbose    bool
	quiet      bool
}

func newFlagSet(stderr io.Writer, f *flags) *flag.FlagSet {
	fs := flag.NewFlagSet("ytscrape", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&f.configPath, "config", "", "Config file (default ytscrape.json or ~/.config/ytscrape/ytscrape.json)")
	fs.StringVar(&f.apiKey, "api-key", "", "YouTube Data API key (env API_KEY)")
	fs.StringVar(&f.apiKey, "k", "", "Shorthand for --api-key")
	fs.StringVar(&f.channel, "channel-id", "", "Channel id, @handle or channel URL (env CHANNEL_ID)")
	fs.StringVar(&f.channel, "c", "", "Shorthand for --channel-id")
	fs.Var(&f.patterns, "regex", "Pattern to extract from descriptions (repeatable)")
	fs.Var(&f.patterns, "r", "Shorthand for --regex")
	fs.Int64Var(&f.pageSize, "page-size", 0, "Playlist page size, 1-50")
	fs.IntVar(&f.batchSize, "batch-size", 0, "Video ids per metadata request, 1-50")
	fs.DurationVar(&f.timeout, "timeout", 0, "Per request timeout")
	fs.Float64Var(&f.rps, "rps", 0, "Requests per second (0 = unlimited)")
	fs.StringVar(&f.report, "report", "", "Write a JSON run report to this path")
	fs.StringVar(&f.endpoint, "endpoint", "", "Override the Data API base URL")
	fs.BoolVar(&f.verbose, "v", false, "Verbose logging")
	fs.BoolVar(&f.quiet, "q", false, "Only log warnings and errors")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `ytscrape - extract pattern matches from a YouTube channel's video descriptions

Usage:
  ytscrape [flags] -k <api-key> -c <channel> -r <regex> [-r <regex>...]

Examples:
  ytscrape -c UCxxxxxxxxxxxxxxxxxxxxxx -r 'https?://(www\.)?dropbox\.com/\S+'
  ytscrape -c @somehandle -r 'bit\.ly/\w+' -r 'patreon\.com/\w+' --report run.json

Matches are printed to stdout, one per line. Progress goes to stderr.

Flags:
`)
		fs.PrintDefaults()
	}
	return fs
}

func newLogger(w io.Writer, f *flags) zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case f.verbose:
		level = zerolog.DebugLevel
	case f.quiet:
		level = zerolog.WarnLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f flags
	fs := newFlagSet(stderr, &f)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return exitConfig
	}

	log := newLogger(stderr, &f)

	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitConfig
	}
	applyFlags(fs, &f, cfg)

	opts := []ytscrape.Option{ytscrape.WithLogger(log)}
	if f.endpoint != "" {
		opts = append(opts, ytscrape.WithEndpoint(f.endpoint))
	}

	res, err := ytscrape.Scrape(ctx, cfg, stdout, opts...)
	code := exitCode(err)
	switch {
	case err != nil && code == exitConfig:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return code
	case err != nil:
		log.Error().Err(err).Msg("Scrape failed")
	default:
		log.Info().
			Int("videos", res.VideoCount).
			Int("matches", res.MatchCount()).
			Int("quota", res.QuotaUsed).
			Dur("took", res.Duration).
			Msg("Done")
	}

	if cfg.ReportPath != "" {
		writeReport(log, cfg, res, err, &code)
	}
	return code
}

func writeReport(log zerolog.Logger, cfg *config.Config, res *ytscrape.Result, runErr error, code *int) {
	quota := 0
	var inner *youtube.Result
	if res != nil {
		quota = res.QuotaUsed
		inner = res.Result
	}

	rep := report.New(cfg.ChannelID, inner, quota, runErr)
	if err := rep.Write(cfg.ReportPath); err != nil {
		log.Error().Err(err).Str("path", cfg.ReportPath).Msg("Writing report failed")
		if *code == exitOK {
			*code = exitAPI
		}
		return
	}
	log.Debug().Str("path", cfg.ReportPath).Str("run_id", rep.RunID).Msg("Report written")
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(fs *flag.FlagSet, f *flags, cfg *config.Config) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "api-key", "k":
			cfg.APIKey = f.apiKey
		case "channel-id", "c":
			cfg.ChannelID = f.channel
		case "regex", "r":
			cfg.Patterns = f.patterns
		case "page-size":
			cfg.PageSize = f.pageSize
		case "batch-size":
			cfg.BatchSize = f.batchSize
		case "timeout":
			cfg.RequestTimeout = config.Duration(f.timeout)
		case "rps":
			cfg.RPS = f.rps
		case "report":
			cfg.ReportPath = f.report
		}
	})
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ytscrape.ErrConfig):
		return exitConfig
	case errors.Is(err, ytscrape.ErrAuth):
		return exitAuth
	default:
		return exitAPI
	}
}
