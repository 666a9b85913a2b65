package http

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// InitialBackoff is the first pause after a throttled response.
	InitialBackoff = 1 * time.Second
	// MaxBackoff caps the pause between throttled responses.
	MaxBackoff = 60 * time.Second
	// BackoffMultiplier grows the pause for consecutive throttled responses.
	BackoffMultiplier = 2.0
	// MinRPSMultiplier is the lowest fraction of the configured rate we drop to.
	MinRPSMultiplier = 0.25
)

// RateLimiterConfig defines request pacing toward the Data API.
type RateLimiterConfig struct {
	// RPS is requests per second. 0 disables pacing.
	RPS float64
	// Burst is the token bucket size (default 1).
	Burst int
	// EnableDynamicBackoff lowers the rate after throttled responses.
	EnableDynamicBackoff bool
}

// DefaultRateLimiterConfig returns pacing that stays well inside Data API limits.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RPS:                  5.0,
		Burst:                1,
		EnableDynamicBackoff: true,
	}
}

// BackoffState tracks throttling backoff.
type BackoffState struct {
	CurrentBackoff    time.Duration
	LastError         time.Time
	ConsecutiveErrors int
	ReducedRPS        float64
}

// RateLimiter paces requests with a token bucket and backs off after throttling.
type RateLimiter struct {
	limiter *rate.Limiter
	config  RateLimiterConfig

	mu      sync.Mutex
	backoff *BackoffState
}

// NewRateLimiter creates a rate limiter. A nil *RateLimiter never blocks.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	rl := &RateLimiter{config: cfg}
	if cfg.RPS > 0 {
		rl.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
	}
	return rl
}

// Wait blocks until any backoff has elapsed and a token is available.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	if err := rl.waitForBackoff(ctx); err != nil {
		return err
	}
	if rl.limiter == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}

func (rl *RateLimiter) waitForBackoff(ctx context.Context) error {
	state := rl.Backoff()
	if state == nil {
		return nil
	}
	remaining := state.CurrentBackoff - time.Since(state.LastError)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordRateLimitError registers a throttled response and returns the pause
// the next request will observe.
func (rl *RateLimiter) RecordRateLimitError(retryAfter time.Duration) time.Duration {
	if rl == nil || !rl.config.EnableDynamicBackoff {
		if retryAfter > 0 {
			return retryAfter
		}
		return InitialBackoff
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.backoff == nil {
		rl.backoff = &BackoffState{CurrentBackoff: InitialBackoff}
	}
	state := rl.backoff
	state.LastError = time.Now()
	state.ConsecutiveErrors++

	// 1s -> 2s -> 4s ... capped
	if state.ConsecutiveErrors > 1 {
		state.CurrentBackoff = time.Duration(float64(state.CurrentBackoff) * BackoffMultiplier)
		if state.CurrentBackoff > MaxBackoff {
			state.CurrentBackoff = MaxBackoff
		}
	}
	if retryAfter > state.CurrentBackoff {
		state.CurrentBackoff = retryAfter
	}

	if rl.limiter != nil {
		factor := 1.0 - 0.25*float64(state.ConsecutiveErrors)
		if factor < MinRPSMultiplier {
			factor = MinRPSMultiplier
		}
		state.ReducedRPS = rl.config.RPS * factor
		rl.limiter.SetLimit(rate.Limit(state.ReducedRPS))
	}

	return state.CurrentBackoff
}

// RecordSuccess clears backoff and restores the configured rate.
func (rl *RateLimiter) RecordSuccess() {
	if rl == nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.backoff == nil {
		return
	}
	if rl.limiter != nil && rl.backoff.ReducedRPS > 0 {
		rl.limiter.SetLimit(rate.Limit(rl.config.RPS))
	}
	rl.backoff = nil
}

// Backoff returns a copy of the current backoff state, or nil.
func (rl *RateLimiter) Backoff() *BackoffState {
	if rl == nil {
		return nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.backoff == nil {
		return nil
	}
	state := *rl.backoff
	return &state
}

// Limit returns the current token bucket rate. 0 means unlimited.
func (rl *RateLimiter) Limit() float64 {
	if rl == nil || rl.limiter == nil {
		return 0
	}
	return float64(rl.limiter.Limit())
}
