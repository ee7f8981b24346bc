package core

import (
	"context"

	"github.com/PaulFidika/subgate/entitlements"
	"github.com/sirupsen/logrus"
)

// DecisionLogger records entitlement decisions to an external sink.
// Implementations should be non-blocking and best-effort, and must not log
// whole user records.
type DecisionLogger interface {
	LogDecision(ctx context.Context, userID string, d entitlements.Decision)
}

type logrusDecisionLogger struct {
	log logrus.FieldLogger
}

// NewLogrusDecisionLogger logs only the fields the decision consulted.
func NewLogrusDecisionLogger(log logrus.FieldLogger) DecisionLogger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return logrusDecisionLogger{log: log}
}

func (l logrusDecisionLogger) LogDecision(ctx context.Context, userID string, d entitlements.Decision) {
	l.log.WithFields(logrus.Fields{
		"user_id":               userID,
		"has_premium":           d.HasPremium,
		"source":                d.Source,
		"plan":                  d.ConsideredFields[entitlements.FieldPlan],
		"subscription_statuses": d.ConsideredFields[entitlements.FieldSubscriptionStatus],
	}).WithContext(ctx).Info("entitlement resolved")
}

type nopDecisionLogger struct{}

func (nopDecisionLogger) LogDecision(context.Context, string, entitlements.Decision) {}
