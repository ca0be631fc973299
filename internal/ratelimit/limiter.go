package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Decision is the outcome of counting one request against a key.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	Reset     time.Time
}

// Limiter counts requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Fixed is a fixed-window limiter over a ulule store.
type Fixed struct {
	l *limiter.Limiter
}

// NewRedis builds a limiter sharing its counters through Redis so every API
// replica sees the same budget.
func NewRedis(client *redis.Client, prefix string, max int, window time.Duration) (*Fixed, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix + "ratelimit"})
	if err != nil {
		return nil, fmt.Errorf("rate limit store: %w", err)
	}
	return newFixed(store, max, window), nil
}

// NewMemory builds a process-local limiter.
func NewMemory(max int, window time.Duration) *Fixed {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: "ratelimit", CleanUpInterval: time.Minute})
	return newFixed(store, max, window)
}

func newFixed(store limiter.Store, max int, window time.Duration) *Fixed {
	rate := limiter.Rate{Period: window, Limit: int64(max)}
	return &Fixed{l: limiter.New(store, rate)}
}

// Allow implements Limiter.
func (f *Fixed) Allow(ctx context.Context, key string) (Decision, error) {
	if f == nil || f.l == nil || f.l.Rate.Limit <= 0 || f.l.Rate.Period <= 0 {
		return Decision{Allowed: true}, nil
	}
	lc, err := f.l.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !lc.Reached,
		Limit:     lc.Limit,
		Remaining: lc.Remaining,
		Reset:     time.Unix(lc.Reset, 0),
	}, nil
}
