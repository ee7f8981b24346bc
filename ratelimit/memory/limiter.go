package memorylimiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PaulFidika/subgate/ratelimit"
)

type bucketState struct {
	// timestamps holds request times in Unix ms, newest last.
	timestamps []int64
}

// Limiter is an in-memory sliding-window rate limiter for single-node
// deployments without Redis.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]ratelimit.Limit
	buckets map[string]*bucketState
	now     func() time.Time
}

var _ ratelimit.Limiter = (*Limiter)(nil)

// New constructs an in-memory limiter with the provided per-bucket limits.
func New(limits map[string]ratelimit.Limit) *Limiter {
	if limits == nil {
		limits = map[string]ratelimit.Limit{}
	}
	return &Limiter{
		limits:  limits,
		buckets: make(map[string]*bucketState),
		now:     time.Now,
	}
}

// Allow records an attempt for key in bucket unless the window is full.
// Denied attempts are not recorded.
func (l *Limiter) Allow(_ context.Context, bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}

	lim := ratelimit.Lookup(l.limits, bucket)
	nowMs := l.now().UnixMilli()
	windowStart := nowMs - lim.Window.Milliseconds()
	limitKey := ratelimit.Key(key, bucket)

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[limitKey]
	if !ok {
		b = &bucketState{}
		l.buckets[limitKey] = b
	}

	ts := b.timestamps
	pruneIdx := 0
	for pruneIdx < len(ts) && ts[pruneIdx] <= windowStart {
		pruneIdx++
	}
	ts = ts[pruneIdx:]

	if len(ts) >= lim.Limit {
		b.timestamps = ts
		return false, nil
	}
	b.timestamps = append(ts, nowMs)
	return true, nil
}

// Sweep drops buckets whose newest attempt fell out of every window.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	nowMs := l.now().UnixMilli()
	for k, b := range l.buckets {
		if len(b.timestamps) == 0 {
			delete(l.buckets, k)
			continue
		}
		newest := b.timestamps[len(b.timestamps)-1]
		if nowMs-newest > maxWindow(l.limits).Milliseconds() {
			delete(l.buckets, k)
		}
	}
}

func maxWindow(limits map[string]ratelimit.Limit) time.Duration {
	w := ratelimit.DefaultLimit.Window
	for _, v := range limits {
		if v.Window > w {
			w = v.Window
		}
	}
	return w
}
