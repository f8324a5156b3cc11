//go:build windows

package browser

import "os/exec"

func launchCommand(raw string) *exec.Cmd {
	return exec.Command("rundll32", "url.dll,FileProtocolHandler", raw)
}
