// Package ratelimit bounds how fast a single client can hit the public quote
// endpoints. The window lives in Redis so every replica shares one budget;
// limiter failures pass requests through so a Redis outage never blocks
// pricing.
package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter counts requests in a sliding window kept as a Redis sorted set,
// one member per request scored by arrival time.
type Limiter struct {
	Client *redis.Client
	Prefix string
}

// Allow records one request for key and reports whether it fits the budget
// of max requests per window. A nil client or non-positive budget disables
// limiting.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	if l.Client == nil || max <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: max, ResetAt: time.Now().Add(window)}, nil
	}

	now := time.Now()
	resetAt := now.Add(window)
	bucket := l.Prefix + key
	member := strconv.FormatInt(now.UnixNano(), 10) + ":" + uuid.NewString()

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, bucket, "-inf", strconv.FormatInt(now.Add(-window).UnixNano(), 10))
	pipe.ZAdd(ctx, bucket, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, bucket)
	pipe.Expire(ctx, bucket, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{ResetAt: resetAt}, err
	}

	seen := int(countCmd.Val())
	remaining := max - seen
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: seen <= max, Remaining: remaining, ResetAt: resetAt}, nil
}
