package core

import (
	"context"
	"reflect"
	"sort"
	"testing"

	"github.com/PaulFidika/subgate/entitlements"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestLogrusDecisionLogger_LogsOnlyDecisionFields(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	dl := NewLogrusDecisionLogger(log)

	user := entitlements.UserRecord{
		ID:             "user_1",
		PublicMetadata: map[string]any{"plan": entitlements.PremiumPlan, "email": "ada@example.com"},
		Subscriptions:  []entitlements.Subscription{{ID: "sub_1", Status: "canceled"}},
	}
	dl.LogDecision(context.Background(), user.ID, entitlements.Resolve(user))

	entries := hook.AllEntries()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != logrus.InfoLevel || e.Message != "entitlement resolved" {
		t.Fatalf("unexpected entry %v %q", e.Level, e.Message)
	}

	var keys []string
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	want := []string{"has_premium", "plan", "source", "subscription_statuses", "user_id"}
	if !reflect.DeepEqual(keys, want) {
		t.Fatalf("expected fields %v, got %v", want, keys)
	}
	if e.Data["user_id"] != "user_1" || e.Data["has_premium"] != true || e.Data["source"] != entitlements.SourcePublicMetadata {
		t.Fatalf("unexpected values %#v", e.Data)
	}
	if e.Data["plan"] != entitlements.PremiumPlan {
		t.Fatalf("expected plan value, got %#v", e.Data["plan"])
	}
	if !reflect.DeepEqual(e.Data["subscription_statuses"], []string{"canceled"}) {
		t.Fatalf("expected statuses only, got %#v", e.Data["subscription_statuses"])
	}
}

func TestService_LogsDecisionThroughLogrus(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	users := &fakeUsers{users: map[string]*entitlements.UserRecord{"user_1": {ID: "user_1"}}}
	svc, _ := NewService(users, Config{Decisions: NewLogrusDecisionLogger(log)})

	if _, err := svc.CheckSubscription(context.Background(), "user_1"); err != nil {
		t.Fatalf("CheckSubscription: %v", err)
	}
	last := hook.LastEntry()
	if last == nil || last.Data["has_premium"] != false {
		t.Fatalf("expected a non-premium decision entry, got %#v", last)
	}
}
