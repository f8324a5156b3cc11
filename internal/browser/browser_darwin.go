//go:build darwin

package browser

import "os/exec"

func launchCommand(raw string) *exec.Cmd {
	return exec.Command("open", raw)
}
