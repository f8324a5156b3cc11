package visibility

import "time"

// Strategy selects how a focus loss past the debounce floor is handled.
type Strategy int

const (
	// HideImmediately hides as soon as focus is lost.
	HideImmediately Strategy = iota
	// HideDeferred waits GraceDelay and hides only if focus is still lost
	// and no pause is active. Used where focus loss and regain can arrive
	// out of order.
	HideDeferred
)

func (s Strategy) String() string {
	if s == HideDeferred {
		return "deferred"
	}
	return "immediate"
}

// Config holds the platform-dependent timing of auto-hide.
type Config struct {
	// DebounceFloor is how long after a show a focus loss is ignored.
	DebounceFloor time.Duration
	GraceDelay    time.Duration
	Strategy      Strategy
}
