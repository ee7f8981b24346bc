package core

import "github.com/PaulFidika/subgate/entitlements"

// SubscriptionView is the body of a successful subscription check.
// Only the fields the decision consulted are echoed back; the full user
// record never leaves the server.
type SubscriptionView struct {
	HasPremium       bool                        `json:"hasPremium"`
	PublicMetadata   map[string]any              `json:"publicMetadata"`
	Subscriptions    []entitlements.Subscription `json:"subscriptions,omitempty"`
	ConsideredFields map[string]any              `json:"consideredFields"`
	Source           string                      `json:"source,omitempty"`
}

// View renders r for the wire.
func (r *Result) View() SubscriptionView {
	v := SubscriptionView{
		HasPremium:       r.Decision.HasPremium,
		ConsideredFields: r.Decision.ConsideredFields,
		Source:           r.Decision.Source,
	}
	if r.User != nil {
		v.PublicMetadata = r.User.PublicMetadata
		v.Subscriptions = r.User.Subscriptions
	}
	if v.PublicMetadata == nil {
		v.PublicMetadata = map[string]any{}
	}
	if v.ConsideredFields == nil {
		v.ConsideredFields = map[string]any{}
	}
	return v
}
