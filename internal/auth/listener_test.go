package auth

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startListener(t *testing.T, state string) *Listener {
	t.Helper()
	l, err := Listen("127.0.0.1:0", "/callback", state)
	require.NoError(t, err)
	t.Cleanup(l.Close)
	return l
}

func get(t *testing.T, rawURL string) (int, string) {
	t.Helper()
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func assertPortReleased(t *testing.T, addr string) {
	t.Helper()
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err, "port should be free after the listener resolved")
	_ = ln.Close()
}

func TestListenerReturnsCode(t *testing.T) {
	l := startListener(t, "")
	addr := l.Addr()

	_, body := get(t, "http://"+addr+"/callback?code=abc123")
	assert.Contains(t, body, "Signed in")

	result := l.Await(context.Background(), time.Second)
	assert.Equal(t, Result{Kind: ResultCode, Code: "abc123"}, result)
	assertPortReleased(t, addr)
}

func TestListenerReturnsDenied(t *testing.T) {
	l := startListener(t, "")

	_, body := get(t, "http://"+l.Addr()+"/callback?error=access_denied&error_description=nope")
	assert.Contains(t, body, "access_denied")

	result := l.Await(context.Background(), time.Second)
	assert.Equal(t, ResultDenied, result.Kind)
	assert.Equal(t, "access_denied", result.Reason)
}

func TestListenerKeepsServingNonTerminalRequests(t *testing.T) {
	l := startListener(t, "")
	base := "http://" + l.Addr()

	status, body := get(t, base+"/favicon.ico")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, waitingHTML, body)

	_, body = get(t, base+"/callback")
	assert.Equal(t, waitingHTML, body, "callback without code or error is not terminal")
	assert.Equal(t, Result{}, l.Outcome())

	get(t, base+"/callback?code=later")
	assert.Equal(t, "later", l.Await(context.Background(), time.Second).Code)
}

func TestListenerIgnoresMismatchedState(t *testing.T) {
	l := startListener(t, "expected")
	base := "http://" + l.Addr()

	_, body := get(t, base+"/callback?code=forged&state=other")
	assert.Equal(t, waitingHTML, body)

	get(t, base+"/callback?code=real&state=expected")
	assert.Equal(t, "real", l.Await(context.Background(), time.Second).Code)
}

func TestListenerResolvesOnlyOnce(t *testing.T) {
	l := startListener(t, "")
	base := "http://" + l.Addr()

	get(t, base+"/callback?code=first")
	// Keep-alives are off, but the server may still be draining; a second
	// callback either gets the placeholder or is refused.
	client := &http.Client{Timeout: time.Second}
	if resp, err := client.Get(base + "/callback?error=access_denied"); err == nil {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, waitingHTML, string(body))
	}

	result := l.Await(context.Background(), time.Second)
	assert.Equal(t, Result{Kind: ResultCode, Code: "first"}, result)
}

func TestListenerTimesOut(t *testing.T) {
	l := startListener(t, "")
	addr := l.Addr()

	result := l.Await(context.Background(), 50*time.Millisecond)
	assert.Equal(t, ResultTimedOut, result.Kind)
	assertPortReleased(t, addr)
}

func TestListenerCancelled(t *testing.T) {
	l := startListener(t, "")
	addr := l.Addr()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result := l.Await(ctx, time.Minute)
	assert.Equal(t, ResultCancelled, result.Kind)
	assertPortReleased(t, addr)
}

func TestListenReportsPortUnavailable(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	_, err = Listen(busy.Addr().String(), "/callback", "")
	assert.ErrorIs(t, err, ErrPortUnavailable)
}

func TestListenerSetsSecurityHeaders(t *testing.T) {
	l := startListener(t, "")

	resp, err := http.Get("http://" + l.Addr() + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}
