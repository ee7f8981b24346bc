package authgin

import (
	"github.com/PaulFidika/subgate/adapters/ginutil"
	"github.com/PaulFidika/subgate/core"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SessionMiddleware verifies the provider session when one is presented and
// attaches the outcome to the context. It never aborts: handlers decide how
// an absent session is answered.
func SessionMiddleware(v core.SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := v.Authenticate(c.Request)
		if err != nil {
			ginutil.SetSessionErr(c, err)
			if core.IsProviderError(err) {
				ginutil.Logger(c).WithError(err).Error("session verification unavailable")
			} else if err != core.ErrUnauthenticated {
				ginutil.Logger(c).WithError(err).Debug("session rejected")
			}
			c.Next()
			return
		}
		ginutil.SetSession(c, s)
		ginutil.SetLogger(c, ginutil.Logger(c).WithFields(logrus.Fields{"user_id": s.UserID}))
		c.Next()
	}
}

// SessionRequired aborts with 401 (or 500 when the provider is unreachable)
// unless the session middleware attached a session.
func SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := ginutil.SessionFromGin(c); err != nil {
			if ginutil.Cancelled(c, err) {
				return
			}
			ginutil.WriteError(c, err, false)
			return
		}
		c.Next()
	}
}
