// Package ratelimit provides a fixed-window request limiter used to slow
// down abuse-prone endpoints such as code resends and password reset
// requests.
package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrLimitExceeded is returned when the caller is over the window limit.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// Limiter counts hits per key within a fixed window.
type Limiter interface {
	// Allow records a hit for the key and returns ErrLimitExceeded when the
	// key has exceeded limit hits within the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) error
}

// RedisLimiter implements Limiter with INCR plus EXPIRE, so the count is
// shared across gateway instances.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter creates a limiter backed by the given Redis client.
func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: "ratelimit:"}
}

// Allow records a hit and enforces the window limit.
func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) error {
	fk := r.prefix + key

	count, err := r.client.Incr(ctx, fk).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, fk, window).Err(); err != nil {
			return err
		}
	}

	if count > int64(limit) {
		return ErrLimitExceeded
	}

	return nil
}

type memoryWindow struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter implements Limiter in process memory for development and
// tests. Counts are not shared across instances.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]memoryWindow
	now     func() time.Time
}

// NewMemoryLimiter creates an in-memory limiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]memoryWindow),
		now:     time.Now,
	}
}

// Allow records a hit and enforces the window limit.
func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || now.After(w.resetAt) {
		w = memoryWindow{count: 0, resetAt: now.Add(window)}
	}

	w.count++
	m.windows[key] = w

	if w.count > limit {
		return ErrLimitExceeded
	}

	return nil
}
