package authgin

import (
	"net/http"
	"time"

	authlang "github.com/PaulFidika/subgate/lang"
	"github.com/gin-gonic/gin"
)

type LanguageConfig struct {
	Supported  []string
	Default    string
	QueryParam string
	CookieName string
}

func (c *LanguageConfig) defaulted() LanguageConfig {
	out := LanguageConfig{}
	if c != nil {
		out = *c
	}
	if out.QueryParam == "" {
		out.QueryParam = "lang"
	}
	if out.CookieName == "" {
		out.CookieName = "lang"
	}
	return out
}

func resolveRequestLanguage(c *gin.Context, cfg LanguageConfig, n authlang.Negotiator) string {
	cand := authlang.Candidates{
		Query:          c.Query(cfg.QueryParam),
		Path:           c.Request.URL.Path,
		AcceptLanguage: c.GetHeader("Accept-Language"),
	}
	if v, err := c.Cookie(cfg.CookieName); err == nil {
		cand.Cookie = v
	}
	return n.Pick(cand)
}

// LanguageMiddleware infers request language and attaches it to the request
// context. A language chosen through the query parameter is remembered in a
// cookie.
func LanguageMiddleware(cfg *LanguageConfig) gin.HandlerFunc {
	c := cfg.defaulted()
	n := authlang.NewNegotiator(c.Supported, c.Default)
	return func(g *gin.Context) {
		l := resolveRequestLanguage(g, c, n)
		if authlang.Normalize(g.Query(c.QueryParam)) == l {
			g.SetSameSite(http.SameSiteLaxMode)
			g.SetCookie(c.CookieName, l, int((365 * 24 * time.Hour).Seconds()), "/", "", false, false)
		}
		g.Set("subgate.language", l)
		g.Request = g.Request.WithContext(authlang.WithLanguage(g.Request.Context(), l))
		g.Next()
	}
}
