package authgin

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PaulFidika/subgate/adapters/ginutil"
	"github.com/PaulFidika/subgate/core"
	"github.com/gin-gonic/gin"
)

type stubVerifier struct {
	s   core.Session
	err error
}

func (v stubVerifier) Authenticate(*http.Request) (core.Session, error) { return v.s, v.err }

func runMiddleware(t *testing.T, req *http.Request, mws ...gin.HandlerFunc) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	for _, mw := range mws {
		mw(c)
	}
	return c
}

func TestCurrentUser_SignedIn(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/app?lang=es", nil)
	c := runMiddleware(t, req,
		LanguageMiddleware(&LanguageConfig{Supported: []string{"en", "es"}}),
		SessionMiddleware(stubVerifier{s: core.Session{UserID: "user_1", SessionID: "sess_1"}}),
	)

	u, ok := CurrentUser(c)
	if !ok {
		t.Fatalf("expected signed in")
	}
	if u.UserID != "user_1" || u.SessionID != "sess_1" || u.Language != "es" || u.Source != "session" {
		t.Fatalf("unexpected view %#v", u)
	}
	if v, _ := c.Get("auth.user_id"); v != "user_1" {
		t.Fatalf("expected auth.user_id, got %#v", v)
	}
}

func TestCurrentUser_Anonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/app", nil)
	req.Header.Set("Accept-Language", "fr-FR,es;q=0.8")
	c := runMiddleware(t, req,
		LanguageMiddleware(&LanguageConfig{Supported: []string{"en", "es"}}),
		SessionMiddleware(stubVerifier{err: core.ErrUnauthenticated}),
	)

	u, ok := CurrentUser(c)
	if ok || u.Source != "none" || u.UserID != "" {
		t.Fatalf("expected anonymous view, got %#v", u)
	}
	if u.Language != "es" {
		t.Fatalf("expected es from Accept-Language, got %q", u.Language)
	}
}

func TestSessionMiddleware_KeepsProviderError(t *testing.T) {
	perr := core.NewProviderError("fetch jwks", errors.New("502"))
	c := runMiddleware(t, httptest.NewRequest(http.MethodGet, "/", nil), SessionMiddleware(stubVerifier{err: perr}))

	_, err := ginutil.SessionFromGin(c)
	if !core.IsProviderError(err) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestSessionRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SessionMiddleware(stubVerifier{err: core.ErrUnauthenticated}), SessionRequired())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequestID_ReusesInboundHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "rid-1" {
		t.Fatalf("expected rid-1, got %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected minted request id")
	}
}
