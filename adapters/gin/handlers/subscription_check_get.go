package handlers

import (
	"net/http"

	"github.com/PaulFidika/subgate/adapters/ginutil"
	"github.com/PaulFidika/subgate/core"
	"github.com/gin-gonic/gin"
)

// SubscriptionCheckOptions tunes HandleSubscriptionCheckGET.
type SubscriptionCheckOptions struct {
	// ShowDetails exposes the failure cause in 500 bodies. Off in production.
	ShowDetails bool
}

// HandleSubscriptionCheckGET answers whether the signed-in caller holds premium.
// It is mounted for every method so that other verbs get a 405 instead of a 404.
func HandleSubscriptionCheckGET(svc *core.Service, rl ginutil.RateLimiter, opts SubscriptionCheckOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			ginutil.WriteError(c, core.ErrMethodNotAllowed, opts.ShowDetails)
			return
		}
		s, err := ginutil.SessionFromGin(c)
		if err != nil {
			if ginutil.Cancelled(c, err) {
				return
			}
			ginutil.WriteError(c, err, opts.ShowDetails)
			return
		}
		if !ginutil.AllowNamed(c, rl, ginutil.RLSubscriptionCheck, s.UserID) {
			ginutil.TooMany(c)
			return
		}

		res, err := svc.CheckSubscription(c.Request.Context(), s.UserID)
		if err != nil {
			if ginutil.Cancelled(c, err) {
				return
			}
			ginutil.Logger(c).WithError(err).WithField("kind", core.KindOf(err)).Error("subscription check failed")
			ginutil.WriteError(c, err, opts.ShowDetails)
			return
		}
		c.JSON(http.StatusOK, res.View())
	}
}
