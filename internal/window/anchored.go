package window

import (
	"runtime"

	"github.com/example/alerttray/internal/logging"
	"github.com/example/alerttray/internal/visibility"
)

// Surface is the toolkit window being anchored. Callbacks registered with
// OnFocusChanged and OnCloseRequested may be invoked from any goroutine.
type Surface interface {
	Show()
	Hide()
	IsVisible() bool
	SetPosition(x, y int)
	OnFocusChanged(func(gained bool))
	OnCloseRequested(func())
}

// Events is what an anchored window reports back to.
type Events interface {
	FocusChanged(visibility.FocusEvent)
	CloseRequested()
}

// Anchored places a Surface next to the status indicator.
type Anchored struct {
	surface Surface
	display func() Display
	goos    string
}

// NewAnchored wraps surface. display is queried on every placement so that
// resolution changes are picked up.
func NewAnchored(surface Surface, display func() Display) *Anchored {
	return &Anchored{surface: surface, display: display, goos: runtime.GOOS}
}

// Bind forwards focus changes and close requests to events. A close request
// never reaches the toolkit; the window is hidden instead.
func (a *Anchored) Bind(events Events) {
	a.surface.OnFocusChanged(func(gained bool) {
		events.FocusChanged(visibility.FocusEvent{Gained: gained})
	})
	a.surface.OnCloseRequested(events.CloseRequested)
}

func (a *Anchored) Show()           { a.surface.Show() }
func (a *Anchored) Hide()           { a.surface.Hide() }
func (a *Anchored) IsVisible() bool { return a.surface.IsVisible() }

// PositionNear moves the surface next to anchor.
func (a *Anchored) PositionNear(anchor visibility.Anchor) {
	p := PlaceNear(a.display(), anchor, a.goos)
	logging.Debugf("window: placing at %d,%d", p.X, p.Y)
	a.surface.SetPosition(p.X, p.Y)
}
