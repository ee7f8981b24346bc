package entitlements

import (
	"reflect"
	"testing"
)

func TestResolve_PremiumPlanWinsRegardlessOfSubscriptions(t *testing.T) {
	cases := map[string][]Subscription{
		"absent":   nil,
		"empty":    {},
		"canceled": {{Status: "canceled"}},
		"active":   {{Status: "active"}},
	}
	for name, subs := range cases {
		t.Run(name, func(t *testing.T) {
			d := Resolve(UserRecord{
				PublicMetadata: map[string]any{"plan": PremiumPlan},
				Subscriptions:  subs,
			})
			if !d.HasPremium {
				t.Fatalf("expected premium for plan metadata, got %#v", d)
			}
			if d.Source != SourcePublicMetadata {
				t.Fatalf("expected source %q, got %q", SourcePublicMetadata, d.Source)
			}
		})
	}
}

func TestResolve_ActiveSubscriptionWinsRegardlessOfMetadata(t *testing.T) {
	cases := map[string]map[string]any{
		"nil metadata": nil,
		"free plan":    {"plan": "free"},
		"odd type":     {"plan": 42},
	}
	for name, md := range cases {
		t.Run(name, func(t *testing.T) {
			d := Resolve(UserRecord{
				PublicMetadata: md,
				Subscriptions:  []Subscription{{Status: "past_due"}, {Status: "active"}},
			})
			if !d.HasPremium {
				t.Fatalf("expected premium for active subscription, got %#v", d)
			}
			if d.Source != SourceSubscriptions {
				t.Fatalf("expected source %q, got %q", SourceSubscriptions, d.Source)
			}
		})
	}
}

func TestResolve_NoSignal(t *testing.T) {
	users := []UserRecord{
		{},
		{PublicMetadata: map[string]any{}},
		{PublicMetadata: map[string]any{"plan": "premium"}},
		{PublicMetadata: map[string]any{"tier": PremiumPlan}},
		{Subscriptions: []Subscription{{Status: "canceled"}, {Status: "Active"}}},
	}
	for i, u := range users {
		d := Resolve(u)
		if d.HasPremium {
			t.Fatalf("case %d: expected no premium, got %#v", i, d)
		}
		if d.Source != "" {
			t.Fatalf("case %d: expected empty source, got %q", i, d.Source)
		}
		if d.Entitlements() != nil {
			t.Fatalf("case %d: expected no grants", i)
		}
	}
}

func TestResolve_AbsentSubscriptionsReportedAsNil(t *testing.T) {
	d := Resolve(UserRecord{PublicMetadata: map[string]any{"plan": "free"}})
	statuses, ok := d.ConsideredFields[FieldSubscriptionStatus].([]string)
	if !ok {
		t.Fatalf("expected []string for statuses, got %T", d.ConsideredFields[FieldSubscriptionStatus])
	}
	if statuses != nil {
		t.Fatalf("expected nil statuses for absent subscriptions, got %#v", statuses)
	}
	if d.ConsideredFields[FieldPlan] != "free" {
		t.Fatalf("expected plan considered as free, got %#v", d.ConsideredFields[FieldPlan])
	}
}

func TestResolve_Idempotent(t *testing.T) {
	u := UserRecord{
		ID:             "user_1",
		PublicMetadata: map[string]any{"plan": "free", "nickname": "x"},
		Subscriptions:  []Subscription{{ID: "sub_1", Status: "canceled"}},
	}
	a := Resolve(u)
	b := Resolve(u)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical decisions, got %#v and %#v", a, b)
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	u := UserRecord{
		ID:             "user_1",
		PublicMetadata: map[string]any{"plan": PremiumPlan},
		Subscriptions:  []Subscription{{ID: "sub_1", Status: "active"}},
	}
	before := UserRecord{
		ID:             "user_1",
		PublicMetadata: map[string]any{"plan": PremiumPlan},
		Subscriptions:  []Subscription{{ID: "sub_1", Status: "active"}},
	}
	d := Resolve(u)

	statuses := d.ConsideredFields[FieldSubscriptionStatus].([]string)
	statuses[0] = "tampered"
	d.ConsideredFields[FieldPlan] = "tampered"

	if !reflect.DeepEqual(u, before) {
		t.Fatalf("input was mutated: %#v", u)
	}
}

func TestDecision_Entitlements(t *testing.T) {
	d := Resolve(UserRecord{Subscriptions: []Subscription{{Status: StatusActive}}})
	grants := d.Entitlements()
	if len(grants) != 1 || grants[0].Name != NamePremium || grants[0].Source != SourceSubscriptions {
		t.Fatalf("unexpected grants: %#v", grants)
	}
}

func TestResolve_ConsideredPlanIsDetachedFromRecord(t *testing.T) {
	u := UserRecord{ID: "user_1", PublicMetadata: map[string]any{
		"plan": map[string]any{"tier": "free", "addons": []any{"export"}},
	}}
	d := Resolve(u)

	considered, ok := d.ConsideredFields[FieldPlan].(map[string]any)
	if !ok {
		t.Fatalf("expected map-valued plan, got %#v", d.ConsideredFields[FieldPlan])
	}
	considered["tier"] = "tampered"
	considered["addons"].([]any)[0] = "tampered"

	want := map[string]any{"tier": "free", "addons": []any{"export"}}
	if !reflect.DeepEqual(u.PublicMetadata["plan"], want) {
		t.Fatalf("input record changed through the decision: %#v", u.PublicMetadata["plan"])
	}
	if d.HasPremium {
		t.Fatalf("a map-valued plan must not grant premium")
	}
}
