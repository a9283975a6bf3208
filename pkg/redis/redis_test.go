package redis

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/wonny/clusterfolio/pkg/config"
)

func TestNew_Disabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on disabled client = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on disabled client = %v", err)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	cfg := ConstructRateLimit(5, 10)

	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if remaining != cfg.Limit {
		t.Errorf("Expected remaining = %d, got %d", cfg.Limit, remaining)
	}
}

func TestConstructRateLimit(t *testing.T) {
	tests := []struct {
		perSecond float64
		burst     int
		want      int
	}{
		{5, 10, 310},
		{0.5, 1, 31},
		{0, 0, 1},
	}
	for _, tt := range tests {
		got := ConstructRateLimit(tt.perSecond, tt.burst)
		if got.Limit != tt.want || got.Window != time.Minute || got.Key != "construct" {
			t.Errorf("ConstructRateLimit(%v, %d) = %+v, want limit %d", tt.perSecond, tt.burst, got, tt.want)
		}
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	if err := cache.Set(ctx, "key", "value", TTLShort); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var result string
	found, err := cache.Get(ctx, "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
	if err := cache.Delete(ctx, "key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	cache := NewCache(Disabled(), "clusterfolio")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"LatestResultKey", LatestResultKey(), "portfolio:latest"},
		{"ResultKey", ResultKey("abc"), "portfolio:run:abc"},
		{"namespaced", cache.Key(LatestResultKey()), "clusterfolio:cache:portfolio:latest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %q, want %q", tt.got, tt.expected)
			}
		})
	}
}

// TestCache_Integration requires TEST_REDIS_ADDR (host:port)
func TestCache_Integration(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping integration test")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("TEST_REDIS_ADDR must be host:port: %v", err)
	}

	ctx := context.Background()
	client, err := New(ctx, config.RedisConfig{Host: host, Port: port, Enabled: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	cache := NewCache(client, "clusterfolio-test")
	type payload struct {
		Tickers []string `json:"tickers"`
	}

	if err := cache.Set(ctx, "k", payload{Tickers: []string{"A", "B"}}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	defer cache.Delete(ctx, "k")

	var got payload
	found, err := cache.Get(ctx, "k", &got)
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v", found, err)
	}
	if len(got.Tickers) != 2 || got.Tickers[1] != "B" {
		t.Errorf("unexpected payload %+v", got)
	}

	limiter := NewRateLimiter(client, "clusterfolio-test")
	cfg := RateLimitConfig{Key: "it", Limit: 2, Window: time.Second}
	defer client.Redis().Del(ctx, "clusterfolio-test:ratelimit:it")
	for i := 0; i < 2; i++ {
		if ok, _, err := limiter.Allow(ctx, cfg); err != nil || !ok {
			t.Fatalf("request %d should pass: %v %v", i, ok, err)
		}
	}
	if ok, _, _ := limiter.Allow(ctx, cfg); ok {
		t.Error("third request in window should be rejected")
	}
}
