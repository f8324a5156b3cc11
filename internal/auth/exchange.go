package auth

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

	"github.com/example/alerttray/internal/logging"
)

const maxResponseBytes = 1 << 20

// Exchanger trades an authorization code for an access token at the
// provider's token endpoint. It performs exactly one request per call.
type Exchanger struct {
	tokenURL   string
	httpClient *http.Client
}

// NewExchanger returns an Exchanger posting to tokenURL. A nil client uses a
// 30 second timeout.
func NewExchanger(tokenURL string, httpClient *http.Client) *Exchanger {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Exchanger{tokenURL: tokenURL, httpClient: httpClient}
}

type tokenResponse struct {
	AccessToken      *string `json:"access_token"`
	TokenType        *string `json:"token_type"`
	Scope            *string `json:"scope"`
	Error            string  `json:"error"`
	ErrorDescription string  `json:"error_description"`
}

// Exchange posts the code and client credentials and returns the access
// token verbatim. Failures are reported as *ExchangeError.
func (e *Exchanger) Exchange(ctx context.Context, code, clientID, clientSecret, redirectURI string) (string, error) {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	payload := form.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(payload))
	if err != nil {
		return "", &ExchangeError{Kind: ExchangeNetwork, Err: fmt.Errorf("build token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	logging.LogHTTPRequest(req, []byte(payload))

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", &ExchangeError{Kind: ExchangeNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &ExchangeError{Kind: ExchangeNetwork, Err: fmt.Errorf("read token response: %w", err)}
	}
	logging.LogHTTPResponse(resp, body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ExchangeError{Kind: ExchangeHTTP, Status: resp.StatusCode, Body: string(body)}
	}

	token, err := parseTokenResponse(body)
	if err != nil {
		return "", &ExchangeError{Kind: ExchangeMalformed, Status: resp.StatusCode, Body: string(body), Err: err}
	}
	return token, nil
}

// parseTokenResponse requires access_token, token_type and scope to be
// present. Scope may be empty when the grant carries no scopes.
func parseTokenResponse(body []byte) (string, error) {
	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("provider error %q: %s", parsed.Error, parsed.ErrorDescription)
	}
	switch {
	case parsed.AccessToken == nil || *parsed.AccessToken == "":
		return "", errors.New("missing access_token")
	case parsed.TokenType == nil || *parsed.TokenType == "":
		return "", errors.New("missing token_type")
	case parsed.Scope == nil:
		return "", errors.New("missing scope")
	}
	return *parsed.AccessToken, nil
}
