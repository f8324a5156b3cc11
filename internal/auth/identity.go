package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/example/alerttray/internal/logging"
)

// Identity is the account a token belongs to.
type Identity struct {
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// IdentityClient performs the authenticated "who am I" call used to decide
// whether a token is still valid.
type IdentityClient struct {
	url        string
	httpClient *http.Client
}

// NewIdentityClient returns a client querying identityURL. A nil httpClient
// uses a 15 second timeout.
func NewIdentityClient(identityURL string, httpClient *http.Client) *IdentityClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &IdentityClient{url: identityURL, httpClient: httpClient}
}

// Verify fetches the identity behind token. A non-2xx response yields an
// error wrapping ErrUnauthorized; transport failures are returned as is.
func (c *IdentityClient) Verify(ctx context.Context, token string) (*Identity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	client.Timeout = c.httpClient.Timeout

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	logging.LogHTTPRequest(req, nil)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read identity response: %w", err)
	}
	logging.LogHTTPResponse(resp, body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	}

	// Any 2xx proves the token; an unexpected body only costs the login.
	var identity Identity
	if err := json.Unmarshal(body, &identity); err != nil {
		logging.Debugf("decode identity response: %v", err)
	}
	return &identity, nil
}
