package handlers

import (
	"net/http"

	"github.com/PaulFidika/subgate/adapters/ginutil"
	"github.com/PaulFidika/subgate/core"
	authlang "github.com/PaulFidika/subgate/lang"
	"github.com/PaulFidika/subgate/web"
	"github.com/gin-gonic/gin"
)

// HandleAppPageGET renders the shell for the caller: a sign-in prompt, an
// upgrade prompt, or the app itself. Signed-in loads share the subscription
// check's rate limit.
func HandleAppPageGET(svc *core.Service, rl ginutil.RateLimiter, meta web.Meta) gin.HandlerFunc {
	return func(c *gin.Context) {
		l, _ := authlang.LanguageFromContext(c.Request.Context())
		state := web.PageState{Loaded: true}

		s, err := ginutil.SessionFromGin(c)
		switch {
		case err == nil:
			state.SignedIn = true
			if !ginutil.AllowNamed(c, rl, ginutil.RLSubscriptionCheck, s.UserID) {
				c.String(http.StatusTooManyRequests, "Too many requests")
				return
			}
			res, cerr := svc.CheckSubscription(c.Request.Context(), s.UserID)
			if cerr != nil {
				if ginutil.Cancelled(c, cerr) {
					return
				}
				ginutil.Logger(c).WithError(cerr).Error("app page: subscription check failed")
				c.String(http.StatusInternalServerError, "Internal server error")
				return
			}
			state.Premium = res.Decision.HasPremium
		case core.IsUnauthenticated(err):
		case ginutil.Cancelled(c, err):
			return
		default:
			c.String(http.StatusInternalServerError, "Internal server error")
			return
		}

		c.HTML(http.StatusOK, web.PageTemplate, web.NewData(meta, l, state, s.UserID))
	}
}
