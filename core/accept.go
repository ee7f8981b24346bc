package core

import (
	"strings"
	"time"
)

const (
	DefaultSessionCookie = "__session"
	DefaultSkew          = 5 * time.Second
	DefaultCacheRefresh  = 15 * time.Minute
)

// AcceptConfig configures verification of provider-issued session tokens (verify-only mode).
type AcceptConfig struct {
	Issuer   string
	Audience string // optional; provider session tokens usually carry none
	JWKSURL  string // defaults to <Issuer>/.well-known/jwks.json
	// AuthorizedParties restricts the azp claim to these origins when non-empty.
	AuthorizedParties []string
	Skew              time.Duration
	CacheRefresh      time.Duration
	CookieName        string
}

// Defaulted fills empty fields.
func (c AcceptConfig) Defaulted() AcceptConfig {
	out := c
	out.Issuer = strings.TrimRight(strings.TrimSpace(out.Issuer), "/")
	if strings.TrimSpace(out.JWKSURL) == "" && out.Issuer != "" {
		out.JWKSURL = out.Issuer + "/.well-known/jwks.json"
	}
	if out.Skew <= 0 {
		out.Skew = DefaultSkew
	}
	if out.CacheRefresh <= 0 {
		out.CacheRefresh = DefaultCacheRefresh
	}
	if strings.TrimSpace(out.CookieName) == "" {
		out.CookieName = DefaultSessionCookie
	}
	return out
}
