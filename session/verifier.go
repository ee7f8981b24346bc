// Package session verifies the session tokens the identity provider attaches
// to browser requests, either as a bearer token or as a session cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PaulFidika/subgate/core"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// KeySource yields the provider's current signing keys.
type KeySource interface {
	KeySet(ctx context.Context) (jwk.Set, error)
}

// CachedKeySource fetches the JWKS through a jwk.Cache that refreshes in the
// background.
type CachedKeySource struct {
	cache *jwk.Cache
	url   string
}

// NewCachedKeySource registers url with a jwk.Cache bound to ctx. The cache
// stops refreshing when ctx is done. The first fetch happens lazily.
func NewCachedKeySource(ctx context.Context, url string, cfg core.AcceptConfig) (*CachedKeySource, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("session: missing jwks url")
	}
	cfg = cfg.Defaulted()
	c := jwk.NewCache(ctx)
	if err := c.Register(url, jwk.WithMinRefreshInterval(cfg.CacheRefresh)); err != nil {
		return nil, fmt.Errorf("session: register jwks: %w", err)
	}
	return &CachedKeySource{cache: c, url: url}, nil
}

func (s *CachedKeySource) KeySet(ctx context.Context) (jwk.Set, error) {
	return s.cache.Get(ctx, s.url)
}

// Verifier implements core.SessionVerifier.
type Verifier struct {
	cfg  core.AcceptConfig
	keys KeySource
}

var _ core.SessionVerifier = (*Verifier)(nil)

// NewVerifier builds a verifier for cfg.Issuer using keys.
func NewVerifier(cfg core.AcceptConfig, keys KeySource) (*Verifier, error) {
	cfg = cfg.Defaulted()
	if cfg.Issuer == "" {
		return nil, errors.New("session: issuer is empty")
	}
	if keys == nil {
		return nil, errors.New("session: missing key source")
	}
	return &Verifier{cfg: cfg, keys: keys}, nil
}

// Authenticate extracts and verifies the session token carried by r.
func (v *Verifier) Authenticate(r *http.Request) (core.Session, error) {
	raw := TokenFromRequest(r, v.cfg.CookieName)
	if raw == "" {
		return core.Session{}, core.ErrUnauthenticated
	}
	return v.Verify(r.Context(), raw)
}

// Verify validates a raw session token and returns the session it names.
func (v *Verifier) Verify(ctx context.Context, raw string) (core.Session, error) {
	keySet, err := v.keys.KeySet(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.Session{}, ctxErr
		}
		return core.Session{}, core.NewProviderError("fetch jwks", err)
	}
	if keySet == nil || keySet.Len() == 0 {
		return core.Session{}, core.NewProviderError("fetch jwks", errors.New("empty key set"))
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(keySet, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAcceptableSkew(v.cfg.Skew),
		jwt.WithContext(ctx),
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}
	token, err := jwt.ParseString(raw, opts...)
	if err != nil {
		return core.Session{}, core.NewUnauthenticated("invalid session token", err)
	}
	if strings.TrimSpace(token.Subject()) == "" {
		return core.Session{}, core.NewUnauthenticated("invalid session token", errors.New("missing subject"))
	}

	s := core.Session{UserID: token.Subject()}
	if rawSID, ok := token.Get("sid"); ok {
		if sid, ok := rawSID.(string); ok {
			s.SessionID = sid
		}
	}
	if rawAZP, ok := token.Get("azp"); ok {
		if azp, ok := rawAZP.(string); ok {
			s.AuthorizedParty = azp
		}
	}
	if len(v.cfg.AuthorizedParties) > 0 && !authorizedParty(v.cfg.AuthorizedParties, s.AuthorizedParty) {
		return core.Session{}, core.NewUnauthenticated("invalid session token", fmt.Errorf("unauthorized party %q", s.AuthorizedParty))
	}
	return s, nil
}

func authorizedParty(allowed []string, azp string) bool {
	azp = strings.TrimRight(azp, "/")
	if azp == "" {
		return false
	}
	for _, a := range allowed {
		if strings.TrimRight(strings.TrimSpace(a), "/") == azp {
			return true
		}
	}
	return false
}

// TokenFromRequest prefers an Authorization bearer token, then the session cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookieName == "" {
		cookieName = core.DefaultSessionCookie
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
