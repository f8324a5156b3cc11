package visibility

import (
	"sync"

	"github.com/example/alerttray/internal/logging"
)

// Option customises a Coordinator.
type Option func(*Coordinator)

// WithClock replaces the system clock.
func WithClock(clock Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// Coordinator owns the shown/hidden state of one anchored window. Its
// methods are safe to call from any goroutine, including from inside the
// Window callbacks it triggers. Window side effects run outside the lock in
// the order their events were accepted; a call made while another goroutine
// is applying effects may return before its own effects have run.
type Coordinator struct {
	win   Window
	cfg   Config
	clock Clock

	mu       sync.Mutex
	snap     snapshot
	queue    []effect
	draining bool

	// timer is only touched while draining.
	timer Timer
}

// New attaches a coordinator to win. A window that is already visible is
// hidden so that the coordinator starts from Hidden.
func New(win Window, cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		win:   win,
		cfg:   cfg,
		clock: systemClock{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if win.IsVisible() {
		logging.Debugf("visibility: window visible at attach, hiding")
		win.Hide()
	}
	return c
}

// Present handles a show, hide or toggle request.
func (c *Coordinator) Present(req Request) {
	c.dispatch(event{kind: evPresent, source: req.Source, anchor: req.Anchor})
}

// FocusChanged handles a focus signal from the window.
func (c *Coordinator) FocusChanged(fe FocusEvent) {
	at := fe.At
	if at.IsZero() {
		at = c.clock.Now()
	}
	c.dispatch(event{kind: evFocus, gained: fe.Gained, at: at})
}

// Pause stops focus loss from hiding the window until Resume. Popups opened
// from inside the window call it before they take focus.
func (c *Coordinator) Pause() {
	c.dispatch(event{kind: evPause})
}

// Resume re-arms focus-loss handling and cancels a pending hide. A
// suppressed window becomes Visible without being shown again.
func (c *Coordinator) Resume() {
	c.dispatch(event{kind: evResume})
}

// CloseRequested hides the window instead of letting it close.
func (c *Coordinator) CloseRequested() {
	c.dispatch(event{kind: evClose})
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.state
}

// Paused reports whether a pause is active.
func (c *Coordinator) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap.paused
}

func (c *Coordinator) dispatch(ev event) {
	c.mu.Lock()
	prev := c.snap.state
	next, effects := transition(c.snap, ev, c.cfg)
	c.snap = next
	c.queue = append(c.queue, effects...)
	if prev != next.state {
		logging.Debugf("visibility: %s -> %s", prev, next.state)
	}

	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	for len(c.queue) > 0 {
		eff := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		c.apply(eff)
		c.mu.Lock()
	}
	c.queue = nil
	c.draining = false
	c.mu.Unlock()
}

func (c *Coordinator) apply(eff effect) {
	switch eff.kind {
	case effPosition:
		c.win.PositionNear(eff.anchor)
	case effShow:
		c.win.Show()
	case effHide:
		c.win.Hide()
	case effShown:
		c.dispatch(event{kind: evShown, at: c.clock.Now()})
	case effScheduleHide:
		c.stopTimer()
		gen := eff.gen
		logging.Debugf("visibility: hide scheduled in %s", eff.delay)
		c.timer = c.clock.AfterFunc(eff.delay, func() {
			c.dispatch(event{kind: evHideTimer, gen: gen})
		})
	case effCancelHide:
		c.stopTimer()
	}
}

func (c *Coordinator) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
