package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func testConfig(key string) *Config {
	cfg := DefaultConfig()
	cfg.APIKey = key
	cfg.RateLimiter.RPS = 0 // unlimited in tests
	cfg.RateLimiter.EnableDynamicBackoff = false
	return cfg
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := New(testConfig("")); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("New() error = %v, want ErrMissingAPIKey", err)
	}
	if _, err := New(nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("New(nil) error = %v, want ErrMissingAPIKey", err)
	}
}

func TestRoundTripInjectsKeyAndUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("key"); got != "secret" {
			t.Errorf("key query = %q, want %q", got, "secret")
		}
		if got := r.URL.Query().Get("part"); got != "snippet" {
			t.Errorf("existing query dropped, part = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "ytscrape/1.0" {
			t.Errorf("User-Agent = %q, want ytscrape/1.0", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(testConfig("secret"))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer client.Close()

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/youtube/v3/videos?part=snippet", nil)
	resp, err := client.HTTPClient().Do(req)
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	resp.Body.Close()

	if req.URL.Query().Get("key") != "" {
		t.Error("original request was mutated")
	}
}

func TestRoundTripOpensCircuitOnServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testConfig("k")
	cfg.CircuitBreaker.FailureThreshold = 2
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		resp, err := client.HTTPClient().Get(server.URL)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Body.Close()
	}

	_, err = client.HTTPClient().Get(server.URL)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("third request error = %v, want ErrCircuitOpen", err)
	}
	if hits.Load() != 2 {
		t.Errorf("server saw %d requests, want 2", hits.Load())
	}
}

func TestRoundTripClientErrorsKeepCircuitClosed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cfg := testConfig("k")
	cfg.CircuitBreaker.FailureThreshold = 1
	client, _ := New(cfg)

	for i := 0; i < 3; i++ {
		resp, err := client.HTTPClient().Get(server.URL)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Body.Close()
	}
}

func TestRoundTripRecordsThrottling(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testConfig("k")
	cfg.RateLimiter.RPS = 100
	cfg.RateLimiter.EnableDynamicBackoff = true
	client, _ := New(cfg)

	resp, err := client.HTTPClient().Get(server.URL)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	resp.Body.Close()

	state := client.RateLimiter().Backoff()
	if state == nil {
		t.Fatal("expected backoff state after 429")
	}
	if state.ConsecutiveErrors != 1 {
		t.Errorf("ConsecutiveErrors = %d, want 1", state.ConsecutiveErrors)
	}
	if got := client.RateLimiter().Limit(); got >= 100 {
		t.Errorf("Limit() = %v, want reduced below 100", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int64
	}{
		{"absent", "", 0},
		{"seconds", "7", 7},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			if got := int64(parseRetryAfter(h).Seconds()); got != tt.want {
				t.Errorf("parseRetryAfter() = %ds, want %ds", got, tt.want)
			}
		})
	}
}
