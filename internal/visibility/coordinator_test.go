package visibility

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// Advance moves time forward and runs due timers on the calling goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type fakeWindow struct {
	mu      sync.Mutex
	visible bool
	calls   []string
	onShow  func()
}

func (w *fakeWindow) Show() {
	w.mu.Lock()
	w.visible = true
	w.calls = append(w.calls, "show")
	hook := w.onShow
	w.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (w *fakeWindow) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = false
	w.calls = append(w.calls, "hide")
}

func (w *fakeWindow) IsVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *fakeWindow) PositionNear(Anchor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls = append(w.calls, "position")
}

func (w *fakeWindow) recorded() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.calls...)
}

func (w *fakeWindow) hides() int {
	n := 0
	for _, c := range w.recorded() {
		if c == "hide" {
			n++
		}
	}
	return n
}

var (
	immediateConfig = Config{DebounceFloor: 500 * time.Millisecond, Strategy: HideImmediately}
	deferredConfig  = Config{DebounceFloor: 1000 * time.Millisecond, GraceDelay: 300 * time.Millisecond, Strategy: HideDeferred}
)

func newCoordinator(t *testing.T, cfg Config) (*Coordinator, *fakeWindow, *fakeClock) {
	t.Helper()
	win := &fakeWindow{}
	clock := newFakeClock()
	return New(win, cfg, WithClock(clock)), win, clock
}

func lose(c *Coordinator)  { c.FocusChanged(FocusEvent{Gained: false}) }
func gain(c *Coordinator)  { c.FocusChanged(FocusEvent{Gained: true}) }
func click(c *Coordinator) { c.Present(Request{Source: TrayClick}) }

func TestTrayClickShowsAfterPositioning(t *testing.T) {
	c, win, _ := newCoordinator(t, immediateConfig)

	click(c)
	assert.Equal(t, Visible, c.State())
	assert.Equal(t, []string{"position", "show"}, win.recorded())
	assert.True(t, win.IsVisible())
}

func TestFocusLossWithinDebounceFloorKeepsWindow(t *testing.T) {
	c, win, clock := newCoordinator(t, immediateConfig)

	click(c)
	clock.Advance(50 * time.Millisecond)
	lose(c)

	assert.Equal(t, Visible, c.State())
	assert.Zero(t, win.hides())
}

func TestFocusLossAfterDebounceFloorHidesImmediately(t *testing.T) {
	c, win, clock := newCoordinator(t, immediateConfig)

	click(c)
	clock.Advance(600 * time.Millisecond)
	lose(c)

	assert.Equal(t, Hidden, c.State())
	assert.Equal(t, 1, win.hides())
}

func TestPauseSuppressesAndResumeRestores(t *testing.T) {
	c, win, clock := newCoordinator(t, immediateConfig)
	click(c)
	clock.Advance(2 * time.Second)

	c.Pause()
	lose(c)
	assert.Equal(t, Suppressed, c.State())
	assert.True(t, c.Paused())

	c.Resume()
	assert.Equal(t, Visible, c.State())
	assert.False(t, c.Paused())
	assert.Zero(t, win.hides())
	assert.Equal(t, []string{"position", "show"}, win.recorded(), "resume must not re-show")
}

func TestFocusLossNeverHidesWhilePaused(t *testing.T) {
	for _, cfg := range []Config{immediateConfig, deferredConfig} {
		t.Run(cfg.Strategy.String(), func(t *testing.T) {
			c, win, clock := newCoordinator(t, cfg)
			click(c)
			c.Pause()

			for i := 0; i < 5; i++ {
				clock.Advance(time.Duration(i) * 400 * time.Millisecond)
				lose(c)
				assert.NotEqual(t, Hidden, c.State())
				clock.Advance(time.Second)
				assert.NotEqual(t, Hidden, c.State())
				gain(c)
			}
			assert.Zero(t, win.hides())
		})
	}
}

func TestDeferredHideRunsAfterGraceDelay(t *testing.T) {
	c, win, clock := newCoordinator(t, deferredConfig)
	click(c)
	clock.Advance(2 * time.Second)

	lose(c)
	assert.Equal(t, Visible, c.State(), "hide waits for the grace delay")
	assert.Equal(t, 1, clock.pending())

	clock.Advance(299 * time.Millisecond)
	assert.Equal(t, Visible, c.State())

	clock.Advance(time.Millisecond)
	assert.Equal(t, Hidden, c.State())
	assert.Equal(t, 1, win.hides())
}

func TestResumeDuringGraceDelayCancelsHide(t *testing.T) {
	c, win, clock := newCoordinator(t, deferredConfig)
	click(c)
	clock.Advance(2 * time.Second)

	lose(c)
	clock.Advance(100 * time.Millisecond)
	c.Resume()
	clock.Advance(time.Second)

	assert.Equal(t, Visible, c.State())
	assert.Zero(t, win.hides())
	assert.Zero(t, clock.pending())
}

func TestPauseDuringGraceDelayIsCheckedAtExpiry(t *testing.T) {
	c, win, clock := newCoordinator(t, deferredConfig)
	click(c)
	clock.Advance(2 * time.Second)

	lose(c)
	c.Pause()
	clock.Advance(time.Second)
	assert.Equal(t, Suppressed, c.State())

	c.Resume()
	assert.Equal(t, Visible, c.State())
	assert.Zero(t, win.hides())
}

func TestFocusRegainedDuringGraceDelayCancelsHide(t *testing.T) {
	c, win, clock := newCoordinator(t, deferredConfig)
	click(c)
	clock.Advance(2 * time.Second)

	lose(c)
	gain(c)
	clock.Advance(time.Second)

	assert.Equal(t, Visible, c.State())
	assert.Zero(t, win.hides())
}

func TestLatestScheduledHideWins(t *testing.T) {
	c, win, clock := newCoordinator(t, deferredConfig)
	click(c)
	clock.Advance(2 * time.Second)

	lose(c)
	clock.Advance(100 * time.Millisecond)
	lose(c)
	assert.Equal(t, 1, clock.pending(), "the earlier hide is superseded")

	clock.Advance(250 * time.Millisecond)
	assert.Equal(t, Visible, c.State(), "first deadline has passed but was superseded")

	clock.Advance(50 * time.Millisecond)
	assert.Equal(t, Hidden, c.State())
	assert.Equal(t, 1, win.hides())
}

func TestTrayClickTogglesVisibleWindow(t *testing.T) {
	c, win, _ := newCoordinator(t, immediateConfig)

	click(c)
	click(c)
	assert.Equal(t, Hidden, c.State())
	assert.False(t, win.IsVisible())

	click(c)
	assert.Equal(t, Visible, c.State())
}

func TestMenuRequests(t *testing.T) {
	c, win, _ := newCoordinator(t, immediateConfig)

	c.Present(Request{Source: MenuHide})
	assert.Equal(t, Hidden, c.State())
	assert.Empty(t, win.recorded(), "hiding a hidden window is a no-op")

	c.Present(Request{Source: MenuShow})
	c.Present(Request{Source: MenuShow})
	assert.Equal(t, Visible, c.State())
	assert.Equal(t, []string{"position", "show", "show"}, win.recorded())

	c.Present(Request{Source: MenuHide})
	assert.Equal(t, Hidden, c.State())
}

func TestExternalActivationShowsHiddenWindow(t *testing.T) {
	c, win, _ := newCoordinator(t, immediateConfig)

	c.Present(Request{Source: ExternalActivation})
	assert.Equal(t, Visible, c.State())
	assert.True(t, win.IsVisible())
}

func TestCloseRequestedHides(t *testing.T) {
	c, win, _ := newCoordinator(t, immediateConfig)
	click(c)

	c.CloseRequested()
	assert.Equal(t, Hidden, c.State())
	assert.Equal(t, 1, win.hides())
}

func TestFocusGainedReturnsToVisible(t *testing.T) {
	c, _, clock := newCoordinator(t, immediateConfig)
	click(c)
	clock.Advance(2 * time.Second)
	c.Pause()
	lose(c)
	require.Equal(t, Suppressed, c.State())

	gain(c)
	assert.Equal(t, Visible, c.State())
	assert.True(t, c.Paused(), "focus does not clear a pause")
}

func TestFocusGainedKeepsDebounceWindow(t *testing.T) {
	c, win, clock := newCoordinator(t, immediateConfig)
	click(c)
	gain(c)
	clock.Advance(10 * time.Millisecond)

	lose(c)
	assert.Equal(t, Visible, c.State())
	assert.Zero(t, win.hides())
}

func TestFocusGainedDuringShowKeepsDebounceWindow(t *testing.T) {
	c, win, clock := newCoordinator(t, immediateConfig)
	// Toolkits deliver focus-in from inside Show.
	win.onShow = func() { gain(c) }

	click(c)
	require.Equal(t, Visible, c.State())

	clock.Advance(50 * time.Millisecond)
	lose(c)
	assert.Equal(t, Visible, c.State(), "spurious focus-out right after show")
	assert.Zero(t, win.hides())

	gain(c)
	clock.Advance(600 * time.Millisecond)
	lose(c)
	assert.Equal(t, Hidden, c.State())
	assert.Equal(t, 1, win.hides())
}

func TestAttachHidesVisibleWindow(t *testing.T) {
	win := &fakeWindow{visible: true}
	c := New(win, immediateConfig, WithClock(newFakeClock()))

	assert.Equal(t, Hidden, c.State())
	assert.False(t, win.IsVisible())
	assert.Equal(t, []string{"hide"}, win.recorded())
}

func TestReentrantFocusLossDuringShow(t *testing.T) {
	c, win, _ := newCoordinator(t, immediateConfig)
	// Some platforms deliver a focus-out from inside Show.
	win.onShow = func() { lose(c) }

	done := make(chan struct{})
	go func() {
		click(c)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("re-entrant call deadlocked")
	}

	assert.Equal(t, Visible, c.State())
	assert.Zero(t, win.hides())
}

func TestConcurrentEventsKeepStateConsistent(t *testing.T) {
	win := &fakeWindow{}
	c := New(win, Config{DebounceFloor: time.Millisecond, GraceDelay: time.Millisecond, Strategy: HideDeferred})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				switch rng.Intn(6) {
				case 0:
					click(c)
				case 1:
					lose(c)
				case 2:
					gain(c)
				case 3:
					c.Pause()
				case 4:
					c.Resume()
				case 5:
					c.Present(Request{Source: MenuShow})
				}
			}
		}(int64(g))
	}
	wg.Wait()

	c.Resume()
	c.Present(Request{Source: MenuHide})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, Hidden, c.State())
	assert.False(t, win.IsVisible())
}
