package authgin

import (
	"net/http"

	"github.com/PaulFidika/subgate/adapters/ginutil"
	"github.com/PaulFidika/subgate/core"
	"github.com/PaulFidika/subgate/entitlements"
	"github.com/gin-gonic/gin"
)

// HandleMeGET returns the caller and the grants they currently hold. Mount it
// behind SessionRequired.
func HandleMeGET(svc *core.Service, rl ginutil.RateLimiter, showDetails bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			ginutil.Unauthorized(c)
			return
		}
		if !ginutil.AllowNamed(c, rl, ginutil.RLSubscriptionCheck, u.UserID) {
			ginutil.TooMany(c)
			return
		}
		res, err := svc.CheckSubscription(c.Request.Context(), u.UserID)
		if err != nil {
			if ginutil.Cancelled(c, err) {
				return
			}
			ginutil.Logger(c).WithError(err).Error("me: subscription check failed")
			ginutil.WriteError(c, err, showDetails)
			return
		}
		grants := res.Decision.Entitlements()
		if grants == nil {
			grants = []entitlements.Entitlement{}
		}
		c.JSON(http.StatusOK, gin.H{"user": u, "entitlements": grants})
	}
}
