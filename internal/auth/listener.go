package auth

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/example/alerttray/internal/logging"
)

const (
	appName         = "GitHub Security Alerts"
	shutdownTimeout = 2 * time.Second
)

var (
	//go:embed templates/success.html
	successHTML string
	//go:embed templates/error.html
	errorHTML string
	//go:embed templates/waiting.html
	waitingHTML string

	successTemplate = template.Must(template.New("success").Parse(successHTML))
	errorTemplate   = template.Must(template.New("error").Parse(errorHTML))
)

// ResultKind tags an AuthorizationResult.
type ResultKind int

const (
	ResultCode ResultKind = iota + 1
	ResultDenied
	ResultTimedOut
	ResultCancelled
)

func (k ResultKind) String() string {
	switch k {
	case ResultCode:
		return "code"
	case ResultDenied:
		return "denied"
	case ResultTimedOut:
		return "timed_out"
	case ResultCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// Result is the single terminal outcome of a redirect listener. Code is set
// for ResultCode, Reason for ResultDenied.
type Result struct {
	Kind   ResultKind
	Code   string
	Reason string
}

// Listener is a single-shot loopback HTTP server waiting for the OAuth
// redirect. Requests to other paths, and callbacks carrying neither a code
// nor an error, receive a neutral placeholder and the listener keeps serving.
type Listener struct {
	path  string
	state string

	ln  net.Listener
	srv *http.Server

	mu      sync.Mutex
	outcome *Result
	done    chan struct{}

	closeOnce sync.Once
}

// Listen binds addr and starts serving on a background goroutine. When state
// is non-empty, callbacks whose state parameter differs are treated as
// malformed. A bind failure is reported as ErrPortUnavailable.
func Listen(addr, path, state string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, &AuthError{Kind: KindPortUnavailable, Err: fmt.Errorf("listen on %s: %w", addr, err)}
	}

	l := &Listener{
		path:  path,
		state: state,
		ln:    ln,
		done:  make(chan struct{}),
	}
	l.srv = &http.Server{
		Handler:           http.HandlerFunc(l.serveHTTP),
		ReadHeaderTimeout: 10 * time.Second,
	}
	l.srv.SetKeepAlivesEnabled(false)

	go func() {
		err := l.srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Debugf("redirect listener on %s stopped: %v", addr, err)
			l.resolve(Result{Kind: ResultCancelled, Reason: err.Error()})
		}
	}()

	logging.Debugf("redirect listener bound to %s, waiting for %s", ln.Addr(), path)
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}

// Await blocks until the redirect arrives, ctx is cancelled, or timeout
// elapses, whichever comes first. The port is released before it returns.
// A zero timeout waits without a deadline.
func (l *Listener) Await(ctx context.Context, timeout time.Duration) Result {
	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-l.done:
	case <-ctx.Done():
		l.resolve(Result{Kind: ResultCancelled})
	case <-expired:
		l.resolve(Result{Kind: ResultTimedOut})
	}

	l.Close()
	return l.Outcome()
}

// Outcome returns the terminal result, or the zero Result while pending.
func (l *Listener) Outcome() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.outcome == nil {
		return Result{}
	}
	return *l.outcome
}

// Close stops the server and unbinds the port. An unresolved listener is
// resolved as cancelled.
func (l *Listener) Close() {
	l.closeOnce.Do(func() {
		l.resolve(Result{Kind: ResultCancelled})

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := l.srv.Shutdown(ctx); err != nil {
			_ = l.srv.Close()
		}
		_ = l.ln.Close()
		logging.Debugf("redirect listener on %s closed (%s)", l.ln.Addr(), l.Outcome().Kind)
	})
}

// resolve records r as the terminal outcome if none exists yet.
func (l *Listener) resolve(r Result) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.outcome != nil {
		return false
	}
	l.outcome = &r
	close(l.done)
	return true
}

func (l *Listener) serveHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if r.URL.Path != l.path {
		writePlaceholder(w)
		return
	}

	logging.Debugf("redirect listener received %s", logging.SanitizeURL(r.URL))

	query := r.URL.Query()
	if l.state != "" && query.Get("state") != l.state {
		logging.Debugf("ignoring callback with mismatched state")
		writePlaceholder(w)
		return
	}

	var result Result
	switch {
	case query.Get("code") != "":
		result = Result{Kind: ResultCode, Code: query.Get("code")}
	case query.Get("error") != "":
		result = Result{Kind: ResultDenied, Reason: query.Get("error")}
	default:
		logging.Debugf("ignoring callback without code or error")
		writePlaceholder(w)
		return
	}

	if !l.resolve(result) {
		writePlaceholder(w)
		return
	}

	var err error
	if result.Kind == ResultCode {
		err = successTemplate.Execute(w, map[string]string{"App": appName})
	} else {
		err = errorTemplate.Execute(w, map[string]string{
			"App":         appName,
			"Error":       result.Reason,
			"Description": query.Get("error_description"),
		})
	}
	if err != nil {
		logging.Debugf("render callback page: %v", err)
	}
}

func writePlaceholder(w http.ResponseWriter) {
	_, _ = w.Write([]byte(waitingHTML))
}
