// Package ratelimit implements fixed-window check-and-increment counters.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"authgate/api/internal/cache"
)

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	// Allow counts one hit against key and reports whether it fits in limit
	// hits per window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

func result(count int64, limit int, ttl time.Duration) Result {
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	res := Result{Allowed: int(count) <= limit, Limit: limit, Remaining: remaining}
	if !res.Allowed {
		res.RetryAfter = ttl
	}
	return res
}

type RedisLimiter struct {
	redis  *cache.Redis
	prefix string
}

func NewRedisLimiter(redis *cache.Redis) *RedisLimiter {
	return &RedisLimiter{redis: redis, prefix: "ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	count, ttl, err := l.redis.IncrWithExpire(ctx, l.prefix+key, window)
	if err != nil {
		return Result{}, err
	}
	if ttl < 0 {
		ttl = window
	}
	return result(count, limit, ttl), nil
}

const sweepInterval = time.Minute

// MemoryLimiter keeps fixed windows in process. Expired windows are swept at
// most once per sweepInterval.
type MemoryLimiter struct {
	mu        sync.Mutex
	now       func() time.Time
	windows   map[string]memoryWindow
	nextSweep time.Time
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{now: time.Now, windows: make(map[string]memoryWindow)}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.nextSweep) {
		for k, w := range l.windows {
			if !now.Before(w.resetAt) {
				delete(l.windows, k)
			}
		}
		l.nextSweep = now.Add(sweepInterval)
	}

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = memoryWindow{resetAt: now.Add(window)}
	}
	w.count++
	l.windows[key] = w

	return result(w.count, limit, w.resetAt.Sub(now)), nil
}
