package tray

import (
	"context"

	"github.com/example/alerttray/internal/visibility"
)

// Status is the sign-in state shown in the tray.
type Status struct {
	SignedIn  bool   `json:"signedIn"`
	Login     string `json:"login,omitempty"`
	Acquiring bool   `json:"acquiring"`
}

// Label is the text of the disabled status line at the top of the menu.
func (s Status) Label() string {
	switch {
	case s.Acquiring:
		return "Waiting for browser sign-in…"
	case s.SignedIn && s.Login != "":
		return "Signed in as " + s.Login
	case s.SignedIn:
		return "Signed in"
	default:
		return "Not signed in"
	}
}

// StatusSource reports the current sign-in state. It may perform a network
// round trip.
type StatusSource interface {
	TrayStatus(ctx context.Context) (Status, error)
}

// Actions are what menu entries trigger.
type Actions interface {
	Present(source visibility.Source)
	SignIn()
	CancelSignIn()
	SignOut()
}

// Watcher notifies about configuration changes made by other processes.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// UpdatePayload is one rendering of the tray.
type UpdatePayload struct {
	Status Status
	Icon   []byte
}

type trayController interface {
	Run(ctx context.Context, updates <-chan UpdatePayload, actions Actions) error
}
