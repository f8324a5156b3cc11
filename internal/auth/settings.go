package auth

import (
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	// DefaultListenAddr is the loopback address the redirect listener binds.
	// It must match the callback URL registered with the OAuth application.
	DefaultListenAddr = "127.0.0.1:17653"
	// DefaultCallbackPath is the redirect path registered with the provider.
	DefaultCallbackPath = "/callback"
	// DefaultAcquireTimeout bounds how long a sign-in waits for the browser.
	DefaultAcquireTimeout = 5 * time.Minute

	defaultIdentityURL = "https://api.github.com/user"
	userAgent          = "alerttray"
)

// DefaultScopes is the fixed scope set requested at sign-in.
var DefaultScopes = []string{"repo", "read:org", "security_events"}

// Compiled OAuth application credentials, set with -ldflags -X. The
// ALERTTRAY_CLIENT_ID and ALERTTRAY_CLIENT_SECRET variables override them.
var (
	CompiledClientID     string
	CompiledClientSecret string
)

// Settings holds the fixed parameters of the authorization-code flow.
type Settings struct {
	ClientID     string
	ClientSecret string
	ListenAddr   string
	CallbackPath string
	Scopes       []string
	Endpoint     oauth2.Endpoint
	IdentityURL  string
	Timeout      time.Duration
}

// DefaultSettings returns GitHub settings populated from compiled values and
// the environment.
func DefaultSettings() Settings {
	return Settings{
		ClientID:     firstNonEmpty(os.Getenv("ALERTTRAY_CLIENT_ID"), CompiledClientID),
		ClientSecret: firstNonEmpty(os.Getenv("ALERTTRAY_CLIENT_SECRET"), CompiledClientSecret),
		ListenAddr:   DefaultListenAddr,
		CallbackPath: DefaultCallbackPath,
		Scopes:       append([]string(nil), DefaultScopes...),
		Endpoint:     github.Endpoint,
		IdentityURL:  defaultIdentityURL,
		Timeout:      DefaultAcquireTimeout,
	}
}

// RedirectURI is the loopback callback URL sent to the provider.
func (s Settings) RedirectURI() string {
	return "http://" + s.ListenAddr + s.CallbackPath
}

func (s Settings) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		Endpoint:     s.Endpoint,
		RedirectURL:  s.RedirectURI(),
		Scopes:       s.Scopes,
	}
}

func (s Settings) withDefaults() Settings {
	if s.ListenAddr == "" {
		s.ListenAddr = DefaultListenAddr
	}
	if s.CallbackPath == "" {
		s.CallbackPath = DefaultCallbackPath
	}
	if len(s.Scopes) == 0 {
		s.Scopes = append([]string(nil), DefaultScopes...)
	}
	if s.Endpoint.AuthURL == "" || s.Endpoint.TokenURL == "" {
		s.Endpoint = github.Endpoint
	}
	if s.IdentityURL == "" {
		s.IdentityURL = defaultIdentityURL
	}
	if s.Timeout <= 0 {
		s.Timeout = DefaultAcquireTimeout
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
