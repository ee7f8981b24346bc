package entitlements

// Resolve decides whether user is entitled to premium functionality.
//
// Premium is granted when publicMetadata.plan is PremiumPlan, or when any
// subscription has StatusActive. Both signals are consulted because the
// provider does not pin down which one is authoritative. The input is only
// read; considered values are copied into the decision.
func Resolve(user UserRecord) Decision {
	plan := cloneValue(user.PublicMetadata["plan"])

	var statuses []string
	if user.Subscriptions != nil {
		statuses = make([]string, 0, len(user.Subscriptions))
		for _, sub := range user.Subscriptions {
			statuses = append(statuses, sub.Status)
		}
	}

	d := Decision{
		ConsideredFields: map[string]any{
			FieldPlan:               plan,
			FieldSubscriptionStatus: statuses,
		},
	}

	if s, ok := plan.(string); ok && s == PremiumPlan {
		d.HasPremium = true
		d.Source = SourcePublicMetadata
		return d
	}
	for _, status := range statuses {
		if status == StatusActive {
			d.HasPremium = true
			d.Source = SourceSubscriptions
			return d
		}
	}
	return d
}

// cloneValue deep-copies the JSON-shaped containers metadata can hold so the
// decision never aliases the caller's record.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
