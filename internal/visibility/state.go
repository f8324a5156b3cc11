package visibility

import (
	"fmt"
	"time"
)

// State is the coordinator's view of the anchored window.
type State int

const (
	Hidden State = iota
	Showing
	Visible
	// Suppressed means the window lost focus while a pause was active and
	// would otherwise have been hidden.
	Suppressed
)

func (s State) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Showing:
		return "showing"
	case Visible:
		return "visible"
	case Suppressed:
		return "suppressed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Source identifies where a presentation request came from.
type Source int

const (
	TrayClick Source = iota + 1
	MenuShow
	MenuHide
	ExternalActivation
)

func (s Source) String() string {
	switch s {
	case TrayClick:
		return "tray_click"
	case MenuShow:
		return "menu_show"
	case MenuHide:
		return "menu_hide"
	case ExternalActivation:
		return "external_activation"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Anchor is the screen position of the status indicator. When Known is
// false the window falls back to its default corner.
type Anchor struct {
	X, Y  int
	Known bool
}

// Request asks for a visibility change.
type Request struct {
	Source Source
	Anchor Anchor
}

// FocusEvent is delivered by the window subsystem. A zero At is stamped
// with the coordinator's clock.
type FocusEvent struct {
	Gained bool
	At     time.Time
}

// Window is the side-effect surface the coordinator drives.
type Window interface {
	Show()
	Hide()
	IsVisible() bool
	PositionNear(anchor Anchor)
}
