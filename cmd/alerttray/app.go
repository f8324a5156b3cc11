package main

import (
	"context"
	"errors"
	"log"

	"github.com/example/alerttray/internal/auth"
	"github.com/example/alerttray/internal/protocol"
	"github.com/example/alerttray/internal/tray"
	"github.com/example/alerttray/internal/visibility"
)

// app joins the session manager, the visibility coordinator and the tray
// for the long-running process.
type app struct {
	ctx     context.Context
	manager *auth.Manager
	coord   *visibility.Coordinator
	runner  *tray.Runner
}

// TrayStatus verifies the stored session; a rejected one reads as signed out.
func (a *app) TrayStatus(ctx context.Context) (tray.Status, error) {
	status := tray.Status{Acquiring: a.manager.Acquiring()}
	identity, err := a.manager.CurrentIdentity(ctx)
	if err != nil {
		return tray.Status{}, err
	}
	if identity != nil {
		status.SignedIn = true
		status.Login = identity.Login
	}
	return status, nil
}

func (a *app) Present(source visibility.Source) {
	a.coord.Present(visibility.Request{Source: source})
}

func (a *app) SignIn() {
	_, err := a.manager.Acquire(a.ctx)
	a.runner.Refresh()
	switch {
	case err == nil:
		a.coord.Present(visibility.Request{Source: visibility.MenuShow})
	case errors.Is(err, auth.ErrCancelled), errors.Is(err, auth.ErrAcquisitionInProgress):
		log.Printf("sign-in: %v", err)
	default:
		log.Printf("sign-in failed: %v", describeAuthError(err))
	}
}

func (a *app) CancelSignIn() {
	a.manager.CancelAcquisition()
}

func (a *app) SignOut() {
	if err := a.manager.Revoke(); err != nil {
		log.Printf("sign-out failed: %v", err)
	}
	a.runner.Refresh()
}

// Activate handles a second launch of the binary.
func (a *app) Activate() {
	a.coord.Present(visibility.Request{Source: visibility.ExternalActivation})
}

// PauseAutoHide is requested by popups opened from inside the window.
func (a *app) PauseAutoHide() {
	a.coord.Pause()
}

func (a *app) ResumeAutoHide() {
	a.coord.Resume()
}

func (a *app) Status() protocol.Status {
	return protocol.Status{
		Window:    a.coord.State().String(),
		Paused:    a.coord.Paused(),
		SignedIn:  a.runner.Latest().SignedIn,
		Acquiring: a.manager.Acquiring(),
	}
}
