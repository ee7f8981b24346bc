package redislimiter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/PaulFidika/subgate/ratelimit"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter is a Redis-backed sliding window limiter using ZSETs, shared by
// every replica of the service.
type Limiter struct {
	rdb    redis.UniversalClient
	prefix string
	limits map[string]ratelimit.Limit
}

var _ ratelimit.Limiter = (*Limiter)(nil)

func New(rdb redis.UniversalClient, keyPrefix string, limits map[string]ratelimit.Limit) *Limiter {
	if limits == nil {
		limits = map[string]ratelimit.Limit{}
	}
	if keyPrefix == "" {
		keyPrefix = "subgate:rl:"
	}
	return &Limiter{rdb: rdb, prefix: keyPrefix, limits: limits}
}

// Allow records an attempt and reports whether it fits the window.
// Rejected attempts are removed again so they do not extend the penalty.
func (l *Limiter) Allow(ctx context.Context, bucket, key string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}
	lim := ratelimit.Lookup(l.limits, bucket)
	now := time.Now().UnixMilli()
	start := now - lim.Window.Milliseconds()
	limitKey := l.prefix + ratelimit.Key(key, bucket)
	// Unique member so concurrent attempts in the same millisecond all count.
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()

	pipe := l.rdb.TxPipeline()
	pipe.ZAdd(ctx, limitKey, redis.Z{Score: float64(now), Member: member})
	pipe.ZRemRangeByScore(ctx, limitKey, "0", strconv.FormatInt(start, 10))
	countCmd := pipe.ZCard(ctx, limitKey)
	pipe.Expire(ctx, limitKey, lim.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	count, err := countCmd.Result()
	if err != nil {
		return false, err
	}
	if count > int64(lim.Limit) {
		l.rdb.ZRem(ctx, limitKey, member)
		return false, nil
	}
	return true, nil
}

// NewClient parses a redis:// URL into a client.
func NewClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
