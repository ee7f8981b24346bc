// Package identity reads user records from the identity provider's backend API.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PaulFidika/subgate/core"
	"github.com/PaulFidika/subgate/entitlements"
	"golang.org/x/oauth2"
)

const (
	DefaultAPIURL  = "https://api.clerk.com"
	DefaultTimeout = 10 * time.Second

	maxUserBody = 1 << 20
)

// Config describes how to reach the provider's backend API.
type Config struct {
	APIURL    string
	SecretKey string
	// Timeout caps a single HTTP exchange; callers may impose a shorter
	// deadline through the context.
	Timeout time.Duration
	// Transport overrides the base round tripper, mostly for tests.
	Transport http.RoundTripper
}

// Client implements core.UserFetcher against the provider's REST API.
// It performs no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ core.UserFetcher = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("identity: secret key is required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if base == "" {
		base = DefaultAPIURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("identity: invalid api url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	// The secret key is a static bearer credential; oauth2.Transport attaches it.
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.SecretKey, TokenType: "Bearer"})
	hc := &http.Client{
		Timeout:   timeout,
		Transport: &oauth2.Transport{Source: src, Base: transport},
	}
	return &Client{baseURL: base, httpClient: hc}, nil
}

// wireUser mirrors the provider's JSON. Unknown fields are ignored.
type wireUser struct {
	ID             string                       `json:"id"`
	PublicMetadata map[string]any               `json:"public_metadata"`
	Subscriptions  *[]entitlements.Subscription `json:"subscriptions"`
}

// GetUser fetches the user with the given id.
func (c *Client) GetUser(ctx context.Context, userID string) (*entitlements.UserRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ErrUnauthenticated
	}
	endpoint := c.baseURL + "/v1/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, core.NewInternalError("build user request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
			return nil, ctxErr
		}
		return nil, core.NewProviderError("fetch user", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUserBody))
	if err != nil {
		return nil, core.NewProviderError("read user", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, core.NewProviderError("fetch user", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, apiErrorCode(body)))
	}

	var w wireUser
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, core.NewProviderError("decode user", err)
	}
	if w.ID == "" {
		return nil, core.NewProviderError("decode user", errors.New("missing user id"))
	}
	if w.ID != userID {
		return nil, core.NewProviderError("decode user", fmt.Errorf("user id mismatch: asked %q, got %q", userID, w.ID))
	}

	u := &entitlements.UserRecord{ID: w.ID, PublicMetadata: w.PublicMetadata}
	if w.Subscriptions != nil {
		u.Subscriptions = *w.Subscriptions
		if u.Subscriptions == nil {
			u.Subscriptions = []entitlements.Subscription{}
		}
	}
	return u, nil
}

// apiErrorCode pulls the first error code out of a provider error body.
func apiErrorCode(body []byte) string {
	var e struct {
		Errors []struct {
			Code string `json:"code"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &e); err == nil && len(e.Errors) > 0 && e.Errors[0].Code != "" {
		return e.Errors[0].Code
	}
	return "unknown_error"
}
