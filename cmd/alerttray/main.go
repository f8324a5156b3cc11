package main

import (
	"errors"
	"log"
	"os"

	"github.com/example/alerttray/internal/auth"
)

// Exit codes for CLI commands.
const (
	ExitCodeSuccess = 0
	ExitCodeError   = 1
	// ExitCodeAuthFailed indicates the sign-in or token check failed.
	ExitCodeAuthFailed = 3
)

func main() {
	log.SetFlags(0)
	if err := newRootCmd(defaultEnvironment()).Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		return ExitCodeAuthFailed
	}
	return ExitCodeError
}
