package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/example/alerttray/internal/browser"
	"github.com/example/alerttray/internal/config"
	"github.com/example/alerttray/internal/logging"
)

// Session is the single stored credential.
type Session struct {
	AccessToken string
	ObtainedAt  time.Time
}

// ConfigStore persists the configuration carrying the Session.
type ConfigStore interface {
	Load() (*config.Config, error)
	Update(func(*config.Config) error) error
}

// TokenExchanger trades an authorization code for an access token.
type TokenExchanger interface {
	Exchange(ctx context.Context, code, clientID, clientSecret, redirectURI string) (string, error)
}

// IdentityVerifier resolves the identity behind a token, failing when the
// provider rejects it.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Option customises a Manager.
type Option func(*Manager)

// WithExchanger replaces the token exchanger.
func WithExchanger(e TokenExchanger) Option {
	return func(m *Manager) { m.exchanger = e }
}

// WithVerifier replaces the identity verifier.
func WithVerifier(v IdentityVerifier) Option {
	return func(m *Manager) { m.verifier = v }
}

// WithBrowser replaces the function used to open the authorization URL.
func WithBrowser(open func(string) error) Option {
	return func(m *Manager) { m.openBrowser = open }
}

// WithClock replaces the time source used to stamp new sessions.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager owns the stored Session and the sign-in flow. At most one
// acquisition runs at a time.
type Manager struct {
	settings    Settings
	store       ConfigStore
	exchanger   TokenExchanger
	verifier    IdentityVerifier
	openBrowser func(string) error
	now         func() time.Time
	newState    func() string

	mu            sync.Mutex
	acquiring     bool
	cancelAcquire context.CancelFunc

	verifyGroup singleflight.Group
}

// NewManager wires a Manager against store using settings.
func NewManager(settings Settings, store ConfigStore, opts ...Option) *Manager {
	settings = settings.withDefaults()
	m := &Manager{
		settings:    settings,
		store:       store,
		exchanger:   NewExchanger(settings.Endpoint.TokenURL, nil),
		verifier:    NewIdentityClient(settings.IdentityURL, nil),
		openBrowser: browser.Open,
		now:         time.Now,
		newState:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Settings returns the effective flow parameters.
func (m *Manager) Settings() Settings {
	return m.settings
}

// AuthorizationURL builds the provider URL the user signs in at. It has no
// side effects and always returns the same value for the same settings.
func (m *Manager) AuthorizationURL() string {
	return m.settings.oauthConfig().AuthCodeURL("")
}

// Acquiring reports whether a sign-in is currently waiting for the browser.
func (m *Manager) Acquiring() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquiring
}

// Acquire runs the interactive sign-in: it binds the redirect listener, opens
// the authorization URL, waits for the redirect and exchanges the code. The
// new Session is persisted only after a successful exchange. A second call
// while one is running fails with ErrAcquisitionInProgress.
func (m *Manager) Acquire(ctx context.Context) (Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if !m.beginAcquire(cancel) {
		return Session{}, &AuthError{Kind: KindAcquisitionInProgress}
	}
	defer m.endAcquire()

	state := m.newState()
	listener, err := Listen(m.settings.ListenAddr, m.settings.CallbackPath, state)
	if err != nil {
		return Session{}, err
	}
	defer listener.Close()

	authURL := m.settings.oauthConfig().AuthCodeURL(state)
	if err := m.openBrowser(authURL); err != nil {
		log.Printf("unable to open browser (%v); continue sign-in at %s", err, authURL)
	} else {
		logging.Debugf("opened browser for sign-in, waiting up to %s", m.settings.Timeout)
	}

	result := listener.Await(ctx, m.settings.Timeout)
	switch result.Kind {
	case ResultCode:
	case ResultDenied:
		return Session{}, &AuthError{Kind: KindDenied, Reason: result.Reason}
	case ResultTimedOut:
		return Session{}, &AuthError{Kind: KindTimedOut}
	default:
		return Session{}, &AuthError{Kind: KindCancelled, Reason: result.Reason}
	}

	token, err := m.exchanger.Exchange(ctx, result.Code, m.settings.ClientID, m.settings.ClientSecret, m.settings.RedirectURI())
	if err != nil {
		return Session{}, &AuthError{Kind: KindExchange, Err: err}
	}

	session := Session{AccessToken: token, ObtainedAt: m.now()}
	if err := m.persist(session); err != nil {
		return Session{}, &AuthError{Kind: KindStore, Err: err}
	}
	log.Printf("signed in, token %s stored", logging.MaskIdentifier(token))
	return session, nil
}

// CancelAcquisition aborts a running Acquire, which then returns
// ErrCancelled after releasing the listener port.
func (m *Manager) CancelAcquisition() {
	m.mu.Lock()
	cancel := m.cancelAcquire
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// SetSessionFromToken stores a user-supplied token after one identity check.
// A rejected token yields ErrInvalidToken and leaves the store untouched.
func (m *Manager) SetSessionFromToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return &AuthError{Kind: KindInvalidToken, Err: errors.New("empty token")}
	}

	identity, err := m.verifier.Verify(ctx, token)
	if err != nil {
		return &AuthError{Kind: KindInvalidToken, Err: err}
	}

	if err := m.persist(Session{AccessToken: token, ObtainedAt: m.now()}); err != nil {
		return &AuthError{Kind: KindStore, Err: err}
	}
	log.Printf("stored token for %s", identity.Login)
	return nil
}

// Session returns the stored Session, if any.
func (m *Manager) Session() (Session, bool, error) {
	cfg, err := m.store.Load()
	if err != nil {
		return Session{}, false, &AuthError{Kind: KindStore, Err: err}
	}
	if !cfg.HasCredential() {
		return Session{}, false, nil
	}
	return Session{AccessToken: cfg.AccessToken, ObtainedAt: cfg.TokenObtainedAt()}, true, nil
}

// CurrentIdentity verifies the stored Session against the provider. When
// the provider rejects it the Session is cleared and (nil, nil) is returned:
// a stale credential means signed out, not an error. Concurrent callers share
// a single round trip, and the store is not locked while it is in flight.
// The shared check does not inherit any one caller's cancellation; each
// caller stops waiting when its own ctx is done, and an interrupted check
// is returned as an error that clears nothing.
func (m *Manager) CurrentIdentity(ctx context.Context) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session, ok, err := m.Session()
	if err != nil || !ok {
		return nil, err
	}
	token := session.AccessToken

	results := m.verifyGroup.DoChan(token, func() (interface{}, error) {
		vctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), verifyTimeout)
		defer cancel()
		return m.verifier.Verify(vctx, token)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-results:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if res.Err != nil {
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			logging.Debugf("identity check for %s did not complete: %v", logging.MaskIdentifier(token), res.Err)
			return nil, res.Err
		}
		log.Printf("stored credential failed verification, signing out: %v", res.Err)
		if clearErr := m.clearIfCurrent(token); clearErr != nil {
			return nil, &AuthError{Kind: KindStore, Err: clearErr}
		}
		return nil, nil
	}

	identity := *res.Val.(*Identity)
	return &identity, nil
}

// Revoke clears the Session and the preferences tied to it.
func (m *Manager) Revoke() error {
	err := m.store.Update(func(cfg *config.Config) error {
		cfg.ClearSignedInState()
		return nil
	})
	if err != nil {
		return &AuthError{Kind: KindStore, Err: err}
	}
	log.Printf("signed out")
	return nil
}

func (m *Manager) beginAcquire(cancel context.CancelFunc) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acquiring {
		return false
	}
	m.acquiring = true
	m.cancelAcquire = cancel
	return true
}

func (m *Manager) endAcquire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquiring = false
	m.cancelAcquire = nil
}

func (m *Manager) persist(session Session) error {
	return m.store.Update(func(cfg *config.Config) error {
		cfg.SetCredential(session.AccessToken, session.ObtainedAt)
		return nil
	})
}

var errSessionReplaced = errors.New("session replaced")

// verifyTimeout bounds a shared identity check once it no longer follows
// the caller that started it.
const verifyTimeout = 30 * time.Second

// clearIfCurrent drops the stored credential unless it was replaced while
// the verification was in flight.
func (m *Manager) clearIfCurrent(token string) error {
	err := m.store.Update(func(cfg *config.Config) error {
		if cfg.AccessToken != token {
			return errSessionReplaced
		}
		cfg.ClearCredential()
		return nil
	})
	if errors.Is(err, errSessionReplaced) {
		return nil
	}
	return err
}
