package entitlements

const (
	// PremiumPlan is the publicMetadata.plan value that grants premium.
	PremiumPlan = "premium_subscription"
	// StatusActive is the subscription status that grants premium.
	StatusActive = "active"

	// NamePremium is the name of the grant produced by Resolve.
	NamePremium = "premium"

	SourcePublicMetadata = "public_metadata.plan"
	SourceSubscriptions  = "subscriptions"

	FieldPlan               = "publicMetadata.plan"
	FieldSubscriptionStatus = "subscriptions[].status"
)

// UserRecord is the user profile returned by the identity provider.
// Only PublicMetadata and Subscriptions are consulted; the rest is opaque.
type UserRecord struct {
	ID             string         `json:"id"`
	PublicMetadata map[string]any `json:"public_metadata"`
	// Subscriptions is nil when the provider omitted the field.
	Subscriptions []Subscription `json:"subscriptions,omitempty"`
}

// Subscription is a billing subscription attached to a user record.
type Subscription struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status"`
	Plan   string `json:"plan,omitempty"`
}

// Entitlement represents a user's grant (e.g., premium) and the signal that
// produced it.
type Entitlement struct {
	Name   string `json:"name"`
	Source string `json:"source,omitempty"`
}

// Decision is the outcome of resolving one user record. It lives for a single
// request and is never persisted.
type Decision struct {
	HasPremium bool `json:"hasPremium"`
	// ConsideredFields maps each consulted field to the raw value seen.
	ConsideredFields map[string]any `json:"consideredFields"`
	// Source names the signal that granted premium; empty when none did.
	Source string `json:"source,omitempty"`
}

// Entitlements lists the grants carried by the decision.
func (d Decision) Entitlements() []Entitlement {
	if !d.HasPremium {
		return nil
	}
	return []Entitlement{{Name: NamePremium, Source: d.Source}}
}
