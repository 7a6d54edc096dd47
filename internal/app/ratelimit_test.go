package app

import (
	"context"
	"testing"
	"time"
)

func TestLocalRateLimiter_SpacesReservations(t *testing.T) {
	limiter := NewLocalRateLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := limiter.Reserve(ctx); err != nil {
		t.Fatalf("first Reserve returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Fatalf("first reservation should be immediate, took %v", elapsed)
	}

	if err := limiter.Reserve(ctx); err != nil {
		t.Fatalf("second Reserve returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("second reservation fired after %v, want at least the 50ms interval", elapsed)
	}
}

func TestLocalRateLimiter_CancelledContext(t *testing.T) {
	limiter := NewLocalRateLimiter(time.Minute)
	ctx := context.Background()

	if err := limiter.Reserve(ctx); err != nil {
		t.Fatalf("first Reserve returned error: %v", err)
	}

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()
	if err := limiter.Reserve(cancelCtx); err == nil {
		t.Fatal("expected Reserve to honor context cancellation")
	}
}
