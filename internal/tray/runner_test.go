package tray

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/alerttray/internal/visibility"
)

type fakeController struct {
	updates chan UpdatePayload
}

func newFakeController() *fakeController {
	return &fakeController{updates: make(chan UpdatePayload, 16)}
}

func (c *fakeController) Run(ctx context.Context, updates <-chan UpdatePayload, _ Actions) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-updates:
			c.updates <- u
		}
	}
}

func (c *fakeController) next(t *testing.T) UpdatePayload {
	t.Helper()
	select {
	case u := <-c.updates:
		return u
	case <-time.After(5 * time.Second):
		t.Fatal("no tray update")
		return UpdatePayload{}
	}
}

type fakeSource struct {
	mu     sync.Mutex
	status Status
	err    error
	calls  int
}

func (s *fakeSource) TrayStatus(context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.status, s.err
}

func (s *fakeSource) set(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

type noActions struct{}

func (noActions) Present(visibility.Source) {}
func (noActions) SignIn()                   {}
func (noActions) CancelSignIn()             {}
func (noActions) SignOut()                  {}

type chanWatcher struct {
	changes chan struct{}
}

func (w *chanWatcher) Watch(ctx context.Context, onChange func()) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.changes:
			onChange()
		}
	}
}

func startRunner(t *testing.T, r *Runner) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestRunnerPublishesInitialStatus(t *testing.T) {
	source := &fakeSource{status: Status{SignedIn: true, Login: "octocat"}}
	ctrl := newFakeController()
	r := NewRunner(source, noActions{}, withController(ctrl))
	startRunner(t, r)

	update := ctrl.next(t)
	assert.Equal(t, "Signed in as octocat", update.Status.Label())
	assert.NotEmpty(t, update.Icon)
	assert.Equal(t, update.Status, r.Latest())
}

func TestRunnerRefreshSkipsUnchangedState(t *testing.T) {
	source := &fakeSource{}
	ctrl := newFakeController()
	r := NewRunner(source, noActions{}, withController(ctrl))
	startRunner(t, r)
	ctrl.next(t)

	r.Refresh()
	require.Eventually(t, func() bool {
		source.mu.Lock()
		defer source.mu.Unlock()
		return source.calls >= 2
	}, 5*time.Second, 10*time.Millisecond)

	select {
	case u := <-ctrl.updates:
		t.Fatalf("unexpected update %+v", u)
	case <-time.After(50 * time.Millisecond):
	}

	source.set(Status{Acquiring: true})
	r.Refresh()
	assert.True(t, ctrl.next(t).Status.Acquiring)
}

func TestRunnerRefreshesOnConfigChange(t *testing.T) {
	source := &fakeSource{}
	ctrl := newFakeController()
	watcher := &chanWatcher{changes: make(chan struct{}, 1)}
	r := NewRunner(source, noActions{}, withController(ctrl), WithWatcher(watcher))
	startRunner(t, r)
	assert.False(t, ctrl.next(t).Status.SignedIn)

	source.set(Status{SignedIn: true})
	watcher.changes <- struct{}{}
	assert.True(t, ctrl.next(t).Status.SignedIn)
}

func TestRunnerPollsOnInterval(t *testing.T) {
	source := &fakeSource{}
	ctrl := newFakeController()
	r := NewRunner(source, noActions{}, withController(ctrl), WithRefreshInterval(20*time.Millisecond))
	startRunner(t, r)
	ctrl.next(t)

	source.set(Status{SignedIn: true})
	assert.True(t, ctrl.next(t).Status.SignedIn)
}

func TestRunnerKeepsRunningWhenStatusFails(t *testing.T) {
	source := &fakeSource{err: errors.New("offline")}
	ctrl := newFakeController()
	r := NewRunner(source, noActions{}, withController(ctrl))
	cancel, done := startRunner(t, r)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "Not signed in", Status{}.Label())
	assert.Equal(t, "Signed in", Status{SignedIn: true}.Label())
	assert.Equal(t, "Waiting for browser sign-in…", Status{SignedIn: true, Acquiring: true}.Label())
}

func TestStatusIconColours(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("icons are ICO containers on windows")
	}
	for signedIn, want := range map[bool][3]uint32{
		false: {0x8c, 0x95, 0x9f},
		true:  {0x2d, 0xa4, 0x4e},
	} {
		img, err := png.Decode(bytes.NewReader(StatusIcon(signedIn)))
		require.NoError(t, err)
		assert.Equal(t, iconSize, img.Bounds().Dx())

		r, g, b, a := img.At(iconSize/2, iconSize/2).RGBA()
		assert.Equal(t, want, [3]uint32{r >> 8, g >> 8, b >> 8})
		assert.Equal(t, uint32(0xffff), a)

		_, _, _, corner := img.At(0, 0).RGBA()
		assert.Zero(t, corner, "corners are transparent")
	}
}
