//go:build !linux

package visibility

import "time"

// PlatformDefaults returns the auto-hide timing for this platform.
func PlatformDefaults() Config {
	return Config{
		DebounceFloor: 500 * time.Millisecond,
		Strategy:      HideImmediately,
	}
}
