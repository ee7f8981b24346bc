package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PaulFidika/subgate/core"
	subtest "github.com/PaulFidika/subgate/testing"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

func newVerifier(t *testing.T, issuer *subtest.TestIssuer, mutate func(*core.AcceptConfig)) *Verifier {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := core.AcceptConfig{Issuer: issuer.URL()}
	if mutate != nil {
		mutate(&cfg)
	}
	if got := cfg.Defaulted().JWKSURL; cfg.JWKSURL == "" && got != issuer.JWKSURL() {
		t.Fatalf("expected derived jwks url %q, got %q", issuer.JWKSURL(), got)
	}
	keys, err := NewCachedKeySource(ctx, issuer.JWKSURL(), cfg)
	if err != nil {
		t.Fatalf("NewCachedKeySource: %v", err)
	}
	v, err := NewVerifier(cfg, keys)
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func TestAuthenticate_BearerToken(t *testing.T) {
	issuer := subtest.NewTestIssuer()
	defer issuer.Close()
	v := newVerifier(t, issuer, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/check-subscription", nil)
	req.Header.Set("Authorization", "Bearer "+issuer.CreateSessionToken("user_1"))

	s, err := v.Authenticate(req)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if s.UserID != "user_1" || s.SessionID != "sess_user_1" || s.AuthorizedParty != subtest.DefaultAuthorizedParty {
		t.Fatalf("unexpected session %#v", s)
	}
}

func TestAuthenticate_SessionCookie(t *testing.T) {
	issuer := subtest.NewTestIssuer()
	defer issuer.Close()
	v := newVerifier(t, issuer, nil)

	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.AddCookie(&http.Cookie{Name: core.DefaultSessionCookie, Value: issuer.CreateSessionToken("user_2")})

	s, err := v.Authenticate(req)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if s.UserID != "user_2" {
		t.Fatalf("expected user_2, got %q", s.UserID)
	}
}

func TestAuthenticate_NoToken(t *testing.T) {
	issuer := subtest.NewTestIssuer()
	defer issuer.Close()
	v := newVerifier(t, issuer, nil)

	_, err := v.Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
	if !errors.Is(err, core.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestVerify_RejectsBadTokens(t *testing.T) {
	issuer := subtest.NewTestIssuer()
	defer issuer.Close()
	v := newVerifier(t, issuer, nil)

	cases := map[string]string{
		"garbage":      "not.a.jwt",
		"expired":      issuer.CreateExpiredToken("user_1"),
		"foreign key":  issuer.CreateForeignToken("user_1"),
		"wrong issuer": issuer.CreateTokenWithClaims("user_1", map[string]any{"iss": "https://other.example"}),
		"no subject":   issuer.CreateTokenWithClaims("", nil),
		"not yet":      issuer.CreateTokenWithClaims("user_1", map[string]any{"nbf": time.Now().Add(time.Hour).Unix()}),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tok)
			if !core.IsUnauthenticated(err) {
				t.Fatalf("expected unauthenticated, got %v", err)
			}
		})
	}
}

func TestVerify_AuthorizedParties(t *testing.T) {
	issuer := subtest.NewTestIssuer()
	defer issuer.Close()
	v := newVerifier(t, issuer, func(c *core.AcceptConfig) {
		c.AuthorizedParties = []string{"https://app.example/"}
	})

	if _, err := v.Verify(context.Background(), issuer.CreateSessionToken("user_1")); !core.IsUnauthenticated(err) {
		t.Fatalf("expected default azp to be rejected, got %v", err)
	}
	tok := issuer.CreateTokenWithClaims("user_1", map[string]any{"azp": "https://app.example"})
	if _, err := v.Verify(context.Background(), tok); err != nil {
		t.Fatalf("expected listed azp to pass, got %v", err)
	}
}

func TestVerify_Audience(t *testing.T) {
	issuer := subtest.NewTestIssuer()
	defer issuer.Close()
	v := newVerifier(t, issuer, func(c *core.AcceptConfig) { c.Audience = "subgate" })

	if _, err := v.Verify(context.Background(), issuer.CreateSessionToken("user_1")); !core.IsUnauthenticated(err) {
		t.Fatalf("expected missing aud to be rejected, got %v", err)
	}
	tok := issuer.CreateTokenWithClaims("user_1", map[string]any{"aud": "subgate"})
	if _, err := v.Verify(context.Background(), tok); err != nil {
		t.Fatalf("expected matching aud to pass, got %v", err)
	}
}

func TestVerify_UnreachableJWKSIsProviderError(t *testing.T) {
	issuer := subtest.NewTestIssuer()
	defer issuer.Close()
	issuer.FailJWKS(http.StatusBadGateway)
	v := newVerifier(t, issuer, nil)

	_, err := v.Verify(context.Background(), issuer.CreateSessionToken("user_1"))
	if !core.IsProviderError(err) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

type staticKeys struct{ set jwk.Set }

func (s staticKeys) KeySet(context.Context) (jwk.Set, error) { return s.set, nil }

func TestVerify_EmptyKeySetIsProviderError(t *testing.T) {
	v, err := NewVerifier(core.AcceptConfig{Issuer: "https://issuer.example"}, staticKeys{set: jwk.NewSet()})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	_, err = v.Verify(context.Background(), "x.y.z")
	if !core.IsProviderError(err) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestNewVerifier_Validation(t *testing.T) {
	if _, err := NewVerifier(core.AcceptConfig{}, staticKeys{}); err == nil {
		t.Fatalf("expected error for empty issuer")
	}
	if _, err := NewVerifier(core.AcceptConfig{Issuer: "https://issuer.example"}, nil); err == nil {
		t.Fatalf("expected error for nil key source")
	}
	if _, err := NewCachedKeySource(context.Background(), " ", core.AcceptConfig{}); err == nil {
		t.Fatalf("expected error for empty jwks url")
	}
}

func TestTokenFromRequest_Precedence(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	req.AddCookie(&http.Cookie{Name: "__session", Value: "cookie-token"})
	if got := TokenFromRequest(req, ""); got != "header-token" {
		t.Fatalf("expected bearer to win, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	req.AddCookie(&http.Cookie{Name: "custom", Value: "cookie-token"})
	if got := TokenFromRequest(req, "custom"); got != "cookie-token" {
		t.Fatalf("expected cookie fallback, got %q", got)
	}
}

type blockingKeys struct{}

func (blockingKeys) KeySet(ctx context.Context) (jwk.Set, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestVerify_CancelledDuringKeyFetchIsNotProviderError(t *testing.T) {
	v, err := NewVerifier(core.AcceptConfig{Issuer: "https://issuer.example"}, blockingKeys{})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = v.Verify(ctx, "x.y.z")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if core.IsProviderError(err) {
		t.Fatalf("cancellation must not be reported as provider error")
	}
}
