package core

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/PaulFidika/subgate/entitlements"
)

// DefaultProviderTimeout bounds a single user fetch.
const DefaultProviderTimeout = 5 * time.Second

// Session is the identity attached to an inbound request by the provider.
type Session struct {
	UserID          string
	SessionID       string
	AuthorizedParty string
}

// SessionVerifier resolves the provider session carried by a request.
// It returns ErrUnauthenticated when there is no valid session and a
// provider error when the provider's keys cannot be obtained.
type SessionVerifier interface {
	Authenticate(r *http.Request) (Session, error)
}

// UserFetcher loads a user record from the identity provider.
type UserFetcher interface {
	GetUser(ctx context.Context, userID string) (*entitlements.UserRecord, error)
}

// Result is what a subscription check produces for one request.
type Result struct {
	User     *entitlements.UserRecord
	Decision entitlements.Decision
}

// Config configures a Service.
type Config struct {
	ProviderTimeout time.Duration
	Decisions       DecisionLogger
}

// Service checks subscriptions for authenticated users. It holds no
// per-request state and is safe for concurrent use.
type Service struct {
	users     UserFetcher
	decisions DecisionLogger
	timeout   time.Duration
}

func NewService(users UserFetcher, cfg Config) (*Service, error) {
	if users == nil {
		return nil, errors.New("core: user fetcher is required")
	}
	s := &Service{users: users, decisions: cfg.Decisions, timeout: cfg.ProviderTimeout}
	if s.decisions == nil {
		s.decisions = nopDecisionLogger{}
	}
	if s.timeout <= 0 {
		s.timeout = DefaultProviderTimeout
	}
	return s, nil
}

// CheckSubscription fetches the user and resolves their entitlement.
// Context cancellation is returned unchanged and yields no decision.
func (s *Service) CheckSubscription(ctx context.Context, userID string) (*Result, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	user, err := s.users.GetUser(fetchCtx, userID)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var ce *Error
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, NewProviderError("fetch user", err)
	}
	if user == nil {
		return nil, NewProviderError("fetch user", errors.New("empty user record"))
	}

	d := entitlements.Resolve(*user)
	s.decisions.LogDecision(ctx, userID, d)
	return &Result{User: user, Decision: d}, nil
}
