//go:build windows

package main

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/windows"
)

func init() {
	if shouldShowConsole(os.Args[1:]) {
		return
	}
	hideConsoleWindow()
}

// shouldShowConsole keeps the console for CLI use. Only a bare launch, the
// tray itself, runs without one.
func shouldShowConsole(args []string) bool {
	if value := os.Getenv("ALERTTRAY_SHOW_CONSOLE"); value != "" {
		show, err := strconv.ParseBool(value)
		return err != nil || show
	}

	for _, raw := range args {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if strings.ToLower(strings.TrimLeft(trimmed, "-/")) == "debug" {
			return true
		}
		if !strings.HasPrefix(trimmed, "-") {
			return true
		}
	}
	return false
}

func hideConsoleWindow() {
	kernel32 := windows.NewLazySystemDLL("kernel32.dll")
	user32 := windows.NewLazySystemDLL("user32.dll")

	getConsoleWindow := kernel32.NewProc("GetConsoleWindow")
	showWindow := user32.NewProc("ShowWindow")
	freeConsole := kernel32.NewProc("FreeConsole")

	hwnd, _, _ := getConsoleWindow.Call()
	if hwnd == 0 {
		return
	}

	const swHide = 0
	showWindow.Call(hwnd, swHide)
	freeConsole.Call()
}
