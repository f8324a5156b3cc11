//go:build !cgo && !windows

package tray

import (
	"context"
	"errors"
)

type unavailableController struct{}

func newTrayController() trayController {
	return unavailableController{}
}

// Run returns an error indicating tray functionality is unavailable without cgo.
func (unavailableController) Run(context.Context, <-chan UpdatePayload, Actions) error {
	return errors.New("system tray is unavailable without cgo support")
}
