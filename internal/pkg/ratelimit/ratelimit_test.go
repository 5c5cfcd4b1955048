package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryLimiterAllowsUpToLimit(t *testing.T) {
	lim := NewMemoryLimiter()
	ctx := context.Background()

	for i := range 3 {
		if err := lim.Allow(ctx, "key-1", 3, time.Minute); err != nil {
			t.Fatalf("hit %d should be allowed: %v", i+1, err)
		}
	}

	err := lim.Allow(ctx, "key-1", 3, time.Minute)
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	lim := NewMemoryLimiter()
	ctx := context.Background()

	if err := lim.Allow(ctx, "key-1", 1, time.Minute); err != nil {
		t.Fatalf("first hit should be allowed: %v", err)
	}
	if err := lim.Allow(ctx, "key-1", 1, time.Minute); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}

	if err := lim.Allow(ctx, "key-2", 1, time.Minute); err != nil {
		t.Fatalf("other key should be unaffected: %v", err)
	}
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	lim := NewMemoryLimiter()
	ctx := context.Background()

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	lim.now = func() time.Time { return now }

	if err := lim.Allow(ctx, "key-1", 1, time.Minute); err != nil {
		t.Fatalf("first hit should be allowed: %v", err)
	}
	if err := lim.Allow(ctx, "key-1", 1, time.Minute); !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}

	now = now.Add(61 * time.Second)
	if err := lim.Allow(ctx, "key-1", 1, time.Minute); err != nil {
		t.Fatalf("hit after window reset should be allowed: %v", err)
	}
}
