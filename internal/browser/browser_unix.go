//go:build !windows && !darwin

package browser

import "os/exec"

func launchCommand(raw string) *exec.Cmd {
	return exec.Command("xdg-open", raw)
}
