// Package browser opens URLs in the user's default web browser.
package browser

import (
	"errors"
	"fmt"
	"net/url"
)

// Open validates raw as an absolute http(s) URL before handing it to the
// platform launcher. It returns once the launcher has started.
func Open(raw string) error {
	if raw == "" {
		return errors.New("empty url")
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("refusing to open %q url", u.Scheme)
	}

	cmd := launchCommand(raw)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
