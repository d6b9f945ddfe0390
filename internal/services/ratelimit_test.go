package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCounterStore struct {
	counts map[string]int64
	err    error
}

func (f *fakeCounterStore) IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if f.counts == nil {
		f.counts = map[string]int64{}
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounterStore) Close() error { return nil }

func TestRateLimiterEnforcesBudget(t *testing.T) {
	rl, err := NewRateLimiter(testLogger(t), &fakeCounterStore{}, 3, time.Minute)
	if err != nil {
		t.Fatalf("NewRateLimiter: %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !rl.Allow(ctx, "user-a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow(ctx, "user-a") {
		t.Fatal("request over budget should be denied")
	}
	if !rl.Allow(ctx, "user-b") {
		t.Fatal("separate key has its own budget")
	}
}

func TestRateLimiterFailsOpen(t *testing.T) {
	rl, err := NewRateLimiter(testLogger(t), &fakeCounterStore{err: errors.New("redis down")}, 1, time.Minute)
	if err != nil {
		t.Fatalf("NewRateLimiter: %v", err)
	}
	if !rl.Allow(context.Background(), "user-a") {
		t.Fatal("store failure must not block requests")
	}
}

func TestNilRateLimiterAllowsAll(t *testing.T) {
	var rl *RateLimiter
	if !rl.Allow(context.Background(), "anyone") {
		t.Fatal("nil limiter must allow everything")
	}
}

func TestNewRateLimiterValidatesConfig(t *testing.T) {
	log := testLogger(t)
	if _, err := NewRateLimiter(log, nil, 3, time.Minute); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewRateLimiter(log, &fakeCounterStore{}, 0, time.Minute); err == nil {
		t.Fatal("expected error for zero budget")
	}
}
