// Package authhttp mounts the subscription check on a plain net/http mux.
package authhttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/PaulFidika/subgate/core"
	"github.com/PaulFidika/subgate/ratelimit"
	"github.com/sirupsen/logrus"
)

const statusClientClosedRequest = 499

// Options tunes CheckSubscriptionHandler.
type Options struct {
	Limiter     ratelimit.Limiter
	Logger      logrus.FieldLogger
	ShowDetails bool
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// CheckSubscriptionHandler serves the subscription check with the same
// contract as the gin route.
func CheckSubscriptionHandler(svc *core.Service, sessions core.SessionVerifier, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		if r.Method != http.MethodGet {
			writeError(w, core.ErrMethodNotAllowed, opts.ShowDetails)
			return
		}
		s, err := sessions.Authenticate(r)
		if err != nil {
			if clientGone(r, err) {
				w.WriteHeader(statusClientClosedRequest)
				return
			}
			if core.IsProviderError(err) {
				log.WithError(err).Error("session verification unavailable")
			}
			writeError(w, err, opts.ShowDetails)
			return
		}
		if opts.Limiter != nil {
			ok, lerr := opts.Limiter.Allow(r.Context(), ratelimit.BucketSubscriptionCheck, s.UserID)
			if lerr != nil {
				log.WithError(lerr).Warn("rate limiter unavailable")
			} else if !ok {
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "Too many requests"})
				return
			}
		}

		res, err := svc.CheckSubscription(r.Context(), s.UserID)
		if err != nil {
			if clientGone(r, err) {
				w.WriteHeader(statusClientClosedRequest)
				return
			}
			log.WithError(err).WithField("user_id", s.UserID).Error("subscription check failed")
			writeError(w, err, opts.ShowDetails)
			return
		}
		writeJSON(w, http.StatusOK, res.View())
	})
}

func clientGone(r *http.Request, err error) bool {
	return errors.Is(err, context.Canceled) && r.Context().Err() != nil
}

func writeError(w http.ResponseWriter, err error, showDetails bool) {
	switch core.KindOf(err) {
	case core.KindUnauthenticated:
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
	case core.KindMethodNotAllowed:
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
	default:
		body := errorBody{Error: "Internal server error"}
		if showDetails {
			body.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
