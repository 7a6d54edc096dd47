/**
 * @description
 * Provider request pacing. The statement provider allows one request per 60
 * seconds per token; Reserve blocks until the next request is allowed and
 * records the slot. Two implementations exist: an in-process limiter for
 * single-instance deployments, and a Redis-backed one whose reservation
 * survives process restarts and is shared by every process holding the same
 * key (the reconciliation loop and the backfill job, or a rolling deploy).
 */
package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProviderRateLimiter paces outbound statement requests.
type ProviderRateLimiter interface {
	// Reserve blocks until a provider request is allowed, then records the
	// reservation. It returns early only when ctx is cancelled.
	Reserve(ctx context.Context) error
}

// LocalRateLimiter enforces the minimum inter-request interval within one
// process.
type LocalRateLimiter struct {
	interval time.Duration

	mu          sync.Mutex
	nextAllowed time.Time
}

// NewLocalRateLimiter creates an in-process limiter with the given minimum
// spacing between requests.
func NewLocalRateLimiter(interval time.Duration) *LocalRateLimiter {
	return &LocalRateLimiter{interval: interval}
}

// Reserve waits until the spacing from the previous reservation has elapsed.
func (l *LocalRateLimiter) Reserve(ctx context.Context) error {
	l.mu.Lock()
	now := time.Now()
	wait := l.nextAllowed.Sub(now)
	if wait < 0 {
		wait = 0
	}
	l.nextAllowed = now.Add(wait + l.interval)
	l.mu.Unlock()

	if wait == 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// redisReserveScript claims the rate-limit slot if it is free and otherwise
// reports how long the slot is still held, in milliseconds.
var redisReserveScript = redis.NewScript(`
if redis.call("SET", KEYS[1], "1", "NX", "PX", ARGV[1]) then
  return -1
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return ttl
`)

// RedisRateLimiter enforces the inter-request interval across processes via
// a shared Redis key.
type RedisRateLimiter struct {
	client   redis.UniversalClient
	key      string
	interval time.Duration
}

// NewRedisRateLimiter creates a distributed limiter. The prefix namespaces
// the key so unrelated deployments sharing a Redis do not collide.
func NewRedisRateLimiter(client redis.UniversalClient, prefix string, interval time.Duration) *RedisRateLimiter {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		trimmed = "vilnyypay:rate_limit"
	}
	trimmed = strings.TrimSuffix(trimmed, ":")

	return &RedisRateLimiter{
		client:   client,
		key:      trimmed + ":provider",
		interval: interval,
	}
}

// Reserve loops until the shared slot is claimed, sleeping out the remaining
// hold time between attempts.
func (r *RedisRateLimiter) Reserve(ctx context.Context) error {
	for {
		raw, err := redisReserveScript.Run(ctx, r.client, []string{r.key}, r.interval.Milliseconds()).Result()
		if err != nil {
			return fmt.Errorf("provider rate limit reservation failed: %w", err)
		}
		ttl, ok := raw.(int64)
		if !ok {
			return fmt.Errorf("unexpected rate limiter response shape: %T", raw)
		}
		if ttl < 0 {
			return nil
		}

		timer := time.NewTimer(time.Duration(ttl) * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
