//go:build cgo || windows

package tray

import (
	"context"

	"github.com/getlantern/systray"

	"github.com/example/alerttray/internal/visibility"
)

const appTitle = "GitHub Security Alerts"

type systrayController struct {
	status  *systray.MenuItem
	toggle  *systray.MenuItem
	show    *systray.MenuItem
	hide    *systray.MenuItem
	signIn  *systray.MenuItem
	cancel  *systray.MenuItem
	signOut *systray.MenuItem
	quit    *systray.MenuItem
}

func newTrayController() trayController {
	return &systrayController{}
}

func (c *systrayController) Run(ctx context.Context, updates <-chan UpdatePayload, actions Actions) error {
	done := make(chan struct{})

	go systray.Run(func() {
		systray.SetTooltip(appTitle)
		c.build()
		go c.listen(ctx, updates, actions)
	}, func() {
		close(done)
	})

	select {
	case <-ctx.Done():
		systray.Quit()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *systrayController) build() {
	c.status = systray.AddMenuItem("Not signed in", "Sign-in state")
	c.status.Disable()
	systray.AddSeparator()

	c.toggle = systray.AddMenuItem("Alerts window", "Show or hide the alerts window")
	c.show = systray.AddMenuItem("Show window", "Bring the alerts window to the front")
	c.hide = systray.AddMenuItem("Hide window", "Hide the alerts window")
	systray.AddSeparator()

	c.signIn = systray.AddMenuItem("Sign in with GitHub…", "Open the browser to sign in")
	c.cancel = systray.AddMenuItem("Cancel sign-in", "Stop waiting for the browser")
	c.cancel.Hide()
	c.signOut = systray.AddMenuItem("Sign out", "Forget the stored GitHub token")
	c.signOut.Hide()
	systray.AddSeparator()

	c.quit = systray.AddMenuItem("Quit", "Exit "+appTitle)
}

func (c *systrayController) listen(ctx context.Context, updates <-chan UpdatePayload, actions Actions) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				systray.Quit()
				return
			}
			c.render(update)
		case <-c.toggle.ClickedCh:
			actions.Present(visibility.TrayClick)
		case <-c.show.ClickedCh:
			actions.Present(visibility.MenuShow)
		case <-c.hide.ClickedCh:
			actions.Present(visibility.MenuHide)
		case <-c.signIn.ClickedCh:
			go actions.SignIn()
		case <-c.cancel.ClickedCh:
			actions.CancelSignIn()
		case <-c.signOut.ClickedCh:
			go actions.SignOut()
		case <-c.quit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func (c *systrayController) render(update UpdatePayload) {
	// Template icons would drop the status colour on macOS.
	if len(update.Icon) > 0 {
		systray.SetIcon(update.Icon)
	}

	status := update.Status
	c.status.SetTitle(status.Label())
	systray.SetTooltip(appTitle + " - " + status.Label())

	setShown(c.signIn, !status.SignedIn && !status.Acquiring)
	setShown(c.cancel, status.Acquiring)
	setShown(c.signOut, status.SignedIn && !status.Acquiring)
}

func setShown(item *systray.MenuItem, shown bool) {
	if shown {
		item.Show()
	} else {
		item.Hide()
	}
}
