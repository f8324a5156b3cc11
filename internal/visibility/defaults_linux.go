package visibility

import "time"

// PlatformDefaults returns the auto-hide timing for this platform. Linux
// window managers deliver focus-out and focus-in in either order when a
// window is raised, so hides are deferred.
func PlatformDefaults() Config {
	return Config{
		DebounceFloor: 1000 * time.Millisecond,
		GraceDelay:    300 * time.Millisecond,
		Strategy:      HideDeferred,
	}
}
