package memorylimiter

import (
	"context"
	"testing"
	"time"

	"github.com/PaulFidika/subgate/ratelimit"
)

func TestAllow_WindowSlides(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(map[string]ratelimit.Limit{
		ratelimit.BucketSubscriptionCheck: {Limit: 2, Window: time.Minute},
	})
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, ratelimit.BucketSubscriptionCheck, "user_1")
		if err != nil || !ok {
			t.Fatalf("attempt %d: expected allow, got %v %v", i, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, ratelimit.BucketSubscriptionCheck, "user_1"); ok {
		t.Fatalf("expected third attempt to be denied")
	}
	if ok, _ := l.Allow(ctx, ratelimit.BucketSubscriptionCheck, "user_2"); !ok {
		t.Fatalf("expected other key to be independent")
	}

	now = now.Add(time.Minute + time.Millisecond)
	if ok, _ := l.Allow(ctx, ratelimit.BucketSubscriptionCheck, "user_1"); !ok {
		t.Fatalf("expected allow after window passed")
	}
}

func TestAllow_RequiresBucketAndKey(t *testing.T) {
	l := New(nil)
	if _, err := l.Allow(context.Background(), "", "k"); err == nil {
		t.Fatalf("expected error for empty bucket")
	}
	if _, err := l.Allow(context.Background(), "b", ""); err == nil {
		t.Fatalf("expected error for empty key")
	}
}

func TestAllow_NilLimiterAllows(t *testing.T) {
	var l *Limiter
	if ok, err := l.Allow(context.Background(), "b", "k"); !ok || err != nil {
		t.Fatalf("expected nil limiter to allow, got %v %v", ok, err)
	}
}

func TestSweep_DropsIdleBuckets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := New(nil)
	l.now = func() time.Time { return now }
	_, _ = l.Allow(context.Background(), "b", "k")

	now = now.Add(2 * time.Minute)
	l.Sweep()
	if len(l.buckets) != 0 {
		t.Fatalf("expected idle bucket swept, have %d", len(l.buckets))
	}
}

func TestLookup_Fallbacks(t *testing.T) {
	limits := map[string]ratelimit.Limit{"default": {Limit: 5, Window: time.Second}}
	if got := ratelimit.Lookup(limits, "other"); got.Limit != 5 {
		t.Fatalf("expected default entry, got %#v", got)
	}
	if got := ratelimit.Lookup(nil, "other"); got != ratelimit.DefaultLimit {
		t.Fatalf("expected package default, got %#v", got)
	}
}
