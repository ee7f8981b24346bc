// Package testing provides a stand-in identity provider for tests of code
// built on subgate. It serves a JWKS, mints session tokens that validate
// against it, and answers the backend user API from in-memory records.
//
// Example usage:
//
//	issuer := testing.NewTestIssuer()
//	defer issuer.Close()
//
//	cfg.Session.Issuer = issuer.URL()
//	cfg.Provider.APIURL = issuer.URL()
//	cfg.Provider.SecretKey = issuer.SecretKey()
//
//	issuer.PutUser(entitlements.UserRecord{ID: "user_123", PublicMetadata: map[string]any{"plan": "premium_subscription"}})
//	token := issuer.CreateSessionToken("user_123")
package testing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/PaulFidika/subgate/entitlements"
	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAuthorizedParty is the azp claim put on minted tokens.
	DefaultAuthorizedParty = "http://localhost:3000"
	defaultSecretKey       = "sk_test_subgate"
)

// TestIssuer is an httptest server playing the identity provider.
// JWKS is served at /.well-known/jwks.json and users at /v1/users/{id}.
type TestIssuer struct {
	server    *httptest.Server
	signer    *RSASigner
	secretKey string

	mu           sync.Mutex
	users        map[string][]byte
	userStatus   int
	jwksStatus   int
	userDelay    time.Duration
	userRequests int
	lastAuth     string
}

// NewTestIssuer starts a test issuer with a fresh RSA key pair.
// Call Close() when done to shut down the test server.
func NewTestIssuer() *TestIssuer {
	signer, err := NewRSASigner(2048, "test-key-1")
	if err != nil {
		panic("failed to create RSA signer: " + err.Error())
	}

	ti := &TestIssuer{
		signer:    signer,
		secretKey: defaultSecretKey,
		users:     make(map[string][]byte),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/jwks.json", ti.handleJWKS)
	mux.HandleFunc("GET /v1/users/{id}", ti.handleUser)

	ti.server = httptest.NewServer(mux)
	return ti
}

// URL returns the base URL of the test server. It is both the session
// issuer and the backend API base.
func (ti *TestIssuer) URL() string { return ti.server.URL }

// JWKSURL returns where the key set is published.
func (ti *TestIssuer) JWKSURL() string { return ti.server.URL + "/.well-known/jwks.json" }

// SecretKey returns the bearer secret the user API expects.
func (ti *TestIssuer) SecretKey() string { return ti.secretKey }

// Close shuts down the test server.
func (ti *TestIssuer) Close() {
	if ti.server != nil {
		ti.server.Close()
	}
}

// PutUser stores a user record served by the backend API.
func (ti *TestIssuer) PutUser(u entitlements.UserRecord) {
	b, err := json.Marshal(u)
	if err != nil {
		panic("failed to marshal user: " + err.Error())
	}
	ti.PutRawUser(u.ID, string(b))
}

// PutRawUser stores a verbatim response body for id, e.g. a malformed one.
func (ti *TestIssuer) PutRawUser(id, body string) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.users[id] = []byte(body)
}

// FailUsers makes the user API answer every request with status.
// Zero restores normal behaviour.
func (ti *TestIssuer) FailUsers(status int) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.userStatus = status
}

// FailJWKS makes the JWKS endpoint answer with status. Zero restores it.
func (ti *TestIssuer) FailJWKS(status int) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.jwksStatus = status
}

// DelayUsers holds every user API response for d.
func (ti *TestIssuer) DelayUsers(d time.Duration) {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.userDelay = d
}

// UserRequests reports how many user API calls were served.
func (ti *TestIssuer) UserRequests() int {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return ti.userRequests
}

// LastAuthorization returns the Authorization header of the last user API call.
func (ti *TestIssuer) LastAuthorization() string {
	ti.mu.Lock()
	defer ti.mu.Unlock()
	return ti.lastAuth
}

func (ti *TestIssuer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	ti.mu.Lock()
	status := ti.jwksStatus
	ti.mu.Unlock()
	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}
	serveJWKS(w, r, ti.signer.JWKS())
}

func (ti *TestIssuer) handleUser(w http.ResponseWriter, r *http.Request) {
	ti.mu.Lock()
	ti.userRequests++
	ti.lastAuth = r.Header.Get("Authorization")
	status := ti.userStatus
	delay := ti.userDelay
	body, ok := ti.users[r.PathValue("id")]
	ti.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if r.Header.Get("Authorization") != "Bearer "+ti.secretKey {
		writeAPIError(w, http.StatusUnauthorized, "authentication_invalid")
		return
	}
	if status != 0 {
		writeAPIError(w, status, "forced_failure")
		return
	}
	if !ok {
		writeAPIError(w, http.StatusNotFound, "resource_not_found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func writeAPIError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"code": code, "message": http.StatusText(status)}},
	})
}

// CreateSessionToken creates a signed session token for userID.
// The token validates against the JWKS served by this issuer.
func (ti *TestIssuer) CreateSessionToken(userID string) string {
	return ti.CreateTokenWithClaims(userID, nil)
}

// CreateTokenWithClaims creates a session token with additional custom claims.
// The custom claims are merged over the standard ones (sub, sid, azp, iss, exp, iat, nbf).
func (ti *TestIssuer) CreateTokenWithClaims(userID string, extraClaims map[string]any) string {
	now := time.Now()

	claims := jwt.MapClaims{
		"sub": userID,
		"sid": "sess_" + userID,
		"azp": DefaultAuthorizedParty,
		"iss": ti.URL(),
		"exp": now.Add(time.Minute).Unix(),
		"iat": now.Unix(),
		"nbf": now.Add(-5 * time.Second).Unix(),
	}

	for k, v := range extraClaims {
		claims[k] = v
	}

	token, err := ti.signer.Sign(context.Background(), claims)
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return token
}

// CreateExpiredToken creates a token that has already expired.
func (ti *TestIssuer) CreateExpiredToken(userID string) string {
	return ti.CreateTokenWithClaims(userID, map[string]any{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
}

// CreateForeignToken signs a token with a key this issuer does not publish.
func (ti *TestIssuer) CreateForeignToken(userID string) string {
	other, err := NewRSASigner(2048, ti.signer.KID())
	if err != nil {
		panic("failed to create RSA signer: " + err.Error())
	}
	now := time.Now()
	token, err := other.Sign(context.Background(), jwt.MapClaims{
		"sub": userID,
		"iss": ti.URL(),
		"exp": now.Add(time.Minute).Unix(),
		"iat": now.Unix(),
	})
	if err != nil {
		panic("failed to sign token: " + err.Error())
	}
	return token
}
