// Package config manages application configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ytscrape/internal/retry"
)

// Errors reported by RequireRun. They are configuration errors: the run
// must stop before any network call.
var (
	ErrMissingAPIKey  = errors.New("missing API key (set API_KEY or pass --api-key)")
	ErrMissingChannel = errors.New("missing channel id (set CHANNEL_ID or pass --channel-id)")
	ErrMissingPattern = errors.New("missing pattern (pass --regex at least once)")
)

// ErrInvalidEnv reports an environment variable that could not be parsed.
var ErrInvalidEnv = errors.New("invalid environment variable")

// Config holds all application configuration for a scrape run.
type Config struct {
	// APIKey is the YouTube Data API key.
	APIKey string `json:"api_key"`
	// ChannelID is a channel id, @handle, or channel URL.
	ChannelID string `json:"channel_id"`
	// Patterns are the regular expressions applied to every description.
	Patterns []string `json:"patterns"`

	// PageSize is the playlist page size (1-50)
	PageSize int64 `json:"page_size"`
	// BatchSize is the number of ids per metadata request (1-50)
	BatchSize int `json:"batch_size"`
	// RequestTimeout bounds each HTTP request
	RequestTimeout Duration `json:"request_timeout"`
	// RPS paces requests to the API (0 = unlimited)
	RPS float64 `json:"rps"`

	// MaxRetries is the maximum number of retries for transient failures
	MaxRetries int `json:"max_retries"`
	// InitialBackoff is the initial backoff duration for retries
	InitialBackoff Duration `json:"initial_backoff"`
	// MaxBackoff is the maximum backoff duration for retries
	MaxBackoff Duration `json:"max_backoff"`
	// BackoffMultiplier is the multiplier for exponential backoff (must be > 1)
	BackoffMultiplier float64 `json:"backoff_multiplier"`

	// ReportPath, when set, receives a JSON summary of the run.
	ReportPath string `json:"report_path"`
}

// Duration is a time.Duration that reads "30s" style strings or
// nanosecond integers from JSON.
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.set(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration must be a string or integer: %s", b)
	}
	*d = Duration(n)
	return nil
}

func (d *Duration) set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Std().String())
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		PageSize:          50,
		BatchSize:         50,
		RequestTimeout:    Duration(30 * time.Second),
		RPS:               5,
		MaxRetries:        3,
		InitialBackoff:    Duration(1 * time.Second),
		MaxBackoff:        Duration(30 * time.Second),
		BackoffMultiplier: 2.0,
	}
}

// Load loads configuration from environment variables, config file, and applies defaults.
// Priority: env vars > config file > defaults
//
// The result is not validated: callers apply command-line overrides first
// and then call Validate.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.loadFromFile(defaultPaths()...); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile is Load with an explicit config file, which must exist.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.loadFromFile(path); err != nil {
		return nil, fmt.Errorf("load config file: %w", err)
	}
	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultPaths() []string {
	paths := []string{"ytscrape.json"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ytscrape", "ytscrape.json"))
	}
	return paths
}

// loadFromFile loads the first existing file among paths.
func (c *Config) loadFromFile(paths ...string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// loadFromEnv overrides config with environment variables. API_KEY and
// CHANNEL_ID are honored without prefix; prefixed names win. Every value
// that fails to parse is reported.
func (c *Config) loadFromEnv() error {
	for _, name := range []string{"API_KEY", "YTSCRAPE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			c.APIKey = v
		}
	}
	for _, name := range []string{"CHANNEL_ID", "YTSCRAPE_CHANNEL_ID"} {
		if v := os.Getenv(name); v != "" {
			c.ChannelID = v
		}
	}
	if v := os.Getenv("YTSCRAPE_PATTERNS"); v != "" {
		c.Patterns = nil
		for _, p := range strings.Split(v, "\n") {
			if p = strings.TrimSpace(p); p != "" {
				c.Patterns = append(c.Patterns, p)
			}
		}
	}
	if v := os.Getenv("YTSCRAPE_REPORT"); v != "" {
		c.ReportPath = v
	}

	var errs []error
	parse := func(name string, set func(string) error) {
		v := os.Getenv(name)
		if v == "" {
			return
		}
		if err := set(v); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%q: %v", ErrInvalidEnv, name, v, err))
		}
	}

	parse("YTSCRAPE_PAGE_SIZE", func(v string) (err error) {
		c.PageSize, err = strconv.ParseInt(v, 10, 64)
		return err
	})
	parse("YTSCRAPE_BATCH_SIZE", func(v string) (err error) {
		c.BatchSize, err = strconv.Atoi(v)
		return err
	})
	parse("YTSCRAPE_TIMEOUT", c.RequestTimeout.set)
	parse("YTSCRAPE_RPS", func(v string) (err error) {
		c.RPS, err = strconv.ParseFloat(v, 64)
		return err
	})
	parse("YTSCRAPE_MAX_RETRIES", func(v string) (err error) {
		c.MaxRetries, err = strconv.Atoi(v)
		return err
	})
	parse("YTSCRAPE_INITIAL_BACKOFF", c.InitialBackoff.set)
	parse("YTSCRAPE_MAX_BACKOFF", c.MaxBackoff.set)

	return errors.Join(errs...)
}

// Validate checks that configuration values are valid and consistent.
func (c *Config) Validate() error {
	if c.PageSize < 1 || c.PageSize > 50 {
		return fmt.Errorf("page_size must be between 1 and 50")
	}
	if c.BatchSize < 1 || c.BatchSize > 50 {
		return fmt.Errorf("batch_size must be between 1 and 50")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.RPS < 0 {
		return fmt.Errorf("rps must be non-negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	return nil
}

// RequireRun reports every missing input a scrape needs.
func (c *Config) RequireRun() error {
	var errs []error
	if c.APIKey == "" {
		errs = append(errs, ErrMissingAPIKey)
	}
	if c.ChannelID == "" {
		errs = append(errs, ErrMissingChannel)
	}
	if len(c.Patterns) == 0 {
		errs = append(errs, ErrMissingPattern)
	}
	return errors.Join(errs...)
}

// RetryConfig converts the retry settings for internal/retry.
func (c *Config) RetryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = c.MaxRetries
	cfg.InitialBackoff = c.InitialBackoff.Std()
	cfg.MaxBackoff = c.MaxBackoff.Std()
	cfg.Multiplier = c.BackoffMultiplier
	return cfg
}
