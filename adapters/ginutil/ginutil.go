// Package ginutil holds the error responses and context helpers shared by the
// gin handlers.
package ginutil

import (
	"context"
	"errors"
	"net/http"

	"github.com/PaulFidika/subgate/core"
	"github.com/PaulFidika/subgate/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	RLSubscriptionCheck = ratelimit.BucketSubscriptionCheck

	// StatusClientClosedRequest marks requests abandoned by the caller.
	StatusClientClosedRequest = 499

	loggerKey = "subgate.logger"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// RateLimiter is satisfied by the memory and redis limiters.
type RateLimiter = ratelimit.Limiter

func Unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
}

func MethodNotAllowed(c *gin.Context) {
	c.Header("Allow", http.MethodGet)
	c.AbortWithStatusJSON(http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
}

func TooMany(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests"})
}

// ServerErr writes the generic 500 body. details is dropped when empty.
func ServerErr(c *gin.Context, details string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", Details: details})
}

// WriteError maps err onto the response for its core.Kind.
// showDetails controls whether the cause reaches the client.
func WriteError(c *gin.Context, err error, showDetails bool) {
	switch core.KindOf(err) {
	case core.KindUnauthenticated:
		Unauthorized(c)
	case core.KindMethodNotAllowed:
		MethodNotAllowed(c)
	default:
		details := ""
		if showDetails {
			details = err.Error()
		}
		ServerErr(c, details)
	}
}

// Cancelled reports whether err stems from the caller abandoning the request,
// and if so aborts without a body.
func Cancelled(c *gin.Context, err error) bool {
	if !errors.Is(err, context.Canceled) || c.Request.Context().Err() == nil {
		return false
	}
	c.AbortWithStatus(StatusClientClosedRequest)
	return true
}

// AllowNamed consults rl for the bucket and key. A nil limiter allows;
// limiter errors fail open and are logged.
func AllowNamed(c *gin.Context, rl RateLimiter, bucket, key string) bool {
	if rl == nil {
		return true
	}
	ok, err := rl.Allow(c.Request.Context(), bucket, key)
	if err != nil {
		Logger(c).WithError(err).WithField("bucket", bucket).Warn("rate limiter unavailable")
		return true
	}
	return ok
}

// SetLogger attaches a request-scoped logger.
func SetLogger(c *gin.Context, l logrus.FieldLogger) { c.Set(loggerKey, l) }

// Logger returns the request-scoped logger or the standard logger.
func Logger(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(logrus.FieldLogger); ok {
			return l
		}
	}
	return logrus.StandardLogger()
}

const (
	sessionKey    = "auth.session"
	sessionErrKey = "auth.session_err"
)

// SetSession stores the verified provider session.
func SetSession(c *gin.Context, s core.Session) {
	c.Set(sessionKey, s)
	c.Set("auth.user_id", s.UserID)
}

// SetSessionErr stores why session verification failed.
func SetSessionErr(c *gin.Context, err error) { c.Set(sessionErrKey, err) }

// SessionFromGin returns the session attached by the session middleware.
// When none is attached the error explains why: ErrUnauthenticated for a
// missing or invalid token, a provider error when keys were unavailable.
func SessionFromGin(c *gin.Context) (core.Session, error) {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(core.Session); ok && s.UserID != "" {
			return s, nil
		}
	}
	if v, ok := c.Get(sessionErrKey); ok {
		if err, ok := v.(error); ok && err != nil {
			return core.Session{}, err
		}
	}
	return core.Session{}, core.ErrUnauthenticated
}
