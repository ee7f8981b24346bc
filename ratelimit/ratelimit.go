// Package ratelimit holds the shared limit vocabulary for the memory and
// redis sliding-window limiters.
package ratelimit

import (
	"context"
	"time"
)

// BucketSubscriptionCheck limits GET /api/check-subscription per user.
const BucketSubscriptionCheck = "subscription_check"

// Limit defines window and max count for a bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// DefaultLimit applies to buckets with no explicit entry and no "default" entry.
var DefaultLimit = Limit{Limit: 60, Window: time.Minute}

// Limiter admits or rejects one attempt for key within bucket.
type Limiter interface {
	Allow(ctx context.Context, bucket, key string) (bool, error)
}

// Lookup picks the limit for bucket, falling back to "default" then DefaultLimit.
func Lookup(limits map[string]Limit, bucket string) Limit {
	if v, ok := limits[bucket]; ok && v.Limit > 0 && v.Window > 0 {
		return v
	}
	if v, ok := limits["default"]; ok && v.Limit > 0 && v.Window > 0 {
		return v
	}
	return DefaultLimit
}

// Key joins the limiter key and bucket into a storage key.
func Key(key, bucket string) string { return key + ":" + bucket }
