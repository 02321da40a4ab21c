package aicore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/halcyonair/aihub/internal/utils"
	"github.com/halcyonair/aihub/providers/observability"
)

// authenticator owns the OAuth2 client-credentials exchange and the in-memory
// token cache. Validity is a pure wall-clock comparison against the expiry
// reported by the token endpoint; there is no refresh-token rotation and no
// revocation handling. The cache is mutex-guarded so concurrent requests never
// observe a torn credential; overlapping refreshes collapse into one fetch.
type authenticator struct {
	clientID     string
	clientSecret string
	tokenURL     string
	client       *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// tokenResponse is the wire shape of the token endpoint's reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // Lifetime in seconds
}

// expirySkew is subtracted from the reported token lifetime so a token is
// refreshed slightly before the gateway would reject it.
const expirySkew = 30 * time.Second

// Token returns a valid bearer token, performing a client-credentials exchange
// only when no token is cached or the cached token's expiry has passed.
// Transport errors and non-2xx responses propagate wrapped as an
// authentication error; there is no retry or backoff.
func (a *authenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.expiresAt) {
		return a.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)

	_, resp, err := utils.DoPostForm[tokenResponse](ctx, a.client, a.tokenURL, form)
	if err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("authentication failed: token endpoint returned an empty access_token")
	}

	a.accessToken = resp.AccessToken
	a.expiresAt = time.Now().Add(time.Duration(resp.ExpiresIn)*time.Second - expirySkew)

	if span := observability.SpanFromContext(ctx); span != nil {
		span.AddEvent(observability.EventAuthTokenFetched,
			observability.Int("auth.expires_in", resp.ExpiresIn),
		)
	}

	return a.accessToken, nil
}

// Invalidate drops the cached token so the next Token call performs a fresh
// exchange regardless of the recorded expiry.
func (a *authenticator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accessToken = ""
	a.expiresAt = time.Time{}
}
