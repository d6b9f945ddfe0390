package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/macrofit/macrofit-backend/internal/logger"
	"github.com/macrofit/macrofit-backend/internal/platform/envutil"
)

// CounterStore is the TTL counter behind the rate limiter, injected so the
// limiter logic is testable without a running redis.
type CounterStore interface {
	// IncrWithTTL bumps key and returns the new count; the first bump in a
	// window sets the expiry.
	IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, error)
	Close() error
}

// RateLimiter enforces a fixed-window request budget per key. A nil
// *RateLimiter allows everything, so wiring can skip it when redis is not
// configured.
type RateLimiter struct {
	log    *logger.Logger
	store  CounterStore
	max    int64
	window time.Duration
}

func NewRateLimiter(log *logger.Logger, store CounterStore, max int, window time.Duration) (*RateLimiter, error) {
	if store == nil {
		return nil, errors.New("counter store required")
	}
	if max <= 0 || window <= 0 {
		return nil, fmt.Errorf("invalid rate limit %d/%s", max, window)
	}
	return &RateLimiter{
		log:    log.With("service", "RateLimiter"),
		store:  store,
		max:    int64(max),
		window: window,
	}, nil
}

// Allow reports whether the caller identified by key has budget left in the
// current window. Store failures allow the request; rate limiting must not
// take the API down with it.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl == nil {
		return true
	}
	count, err := rl.store.IncrWithTTL(ctx, "ratelimit:"+key, rl.window)
	if err != nil {
		rl.log.Warn("rate limit store error, allowing request", "error", err)
		return true
	}
	if count > rl.max {
		rl.log.Info("rate limit exceeded", "key", key, "count", count, "max", rl.max)
		return false
	}
	return true
}

func (rl *RateLimiter) Close() error {
	if rl == nil {
		return nil
	}
	return rl.store.Close()
}

type redisCounterStore struct {
	rdb *goredis.Client
}

func NewRedisCounterStore(log *logger.Logger) (CounterStore, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, errors.New("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if log != nil {
		log.Info("redis rate limit store connected", "addr", addr)
	}
	return &redisCounterStore{rdb: rdb}, nil
}

func (s *redisCounterStore) IncrWithTTL(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := s.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *redisCounterStore) Close() error {
	return s.rdb.Close()
}

// NewRateLimiterFromEnv wires the redis-backed limiter when REDIS_ADDR is
// set; otherwise it returns nil and AI routes run unlimited.
func NewRateLimiterFromEnv(log *logger.Logger) (*RateLimiter, error) {
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) == "" {
		return nil, nil
	}
	store, err := NewRedisCounterStore(log)
	if err != nil {
		return nil, err
	}
	max := envutil.Int("RATE_LIMIT_MAX", 10)
	windowSec := envutil.Int("RATE_LIMIT_WINDOW_SECONDS", 60)
	return NewRateLimiter(log, store, max, time.Duration(windowSec)*time.Second)
}
