package visibility

import "time"

type eventKind int

const (
	evPresent eventKind = iota + 1
	evFocus
	evPause
	evResume
	evClose
	evShown
	evHideTimer
)

type event struct {
	kind   eventKind
	source Source
	anchor Anchor
	gained bool
	at     time.Time
	gen    uint64
}

type effectKind int

const (
	effPosition effectKind = iota + 1
	effShow
	effHide
	// effShown feeds evShown back once the show has been applied.
	effShown
	effScheduleHide
	effCancelHide
)

type effect struct {
	kind   effectKind
	anchor Anchor
	gen    uint64
	delay  time.Duration
}

// snapshot is everything the transition function decides on.
type snapshot struct {
	state   State
	focused bool
	paused  bool
	shownAt time.Time
	// lostAt is the time of the most recent focus loss.
	lostAt time.Time

	hidePending bool
	hideGen     uint64
}

// transition is total: every event has a defined outcome in every state,
// including events that arrive out of order.
func transition(s snapshot, ev event, cfg Config) (snapshot, []effect) {
	switch ev.kind {
	case evPresent:
		return present(s, ev)
	case evClose:
		return hide(s)
	case evShown:
		if s.state != Showing {
			return s, nil
		}
		s.state = Visible
		s.shownAt = ev.at
		return s, nil
	case evFocus:
		if ev.gained {
			return focusGained(s)
		}
		return focusLost(s, ev.at, cfg)
	case evPause:
		s.paused = true
		return s, nil
	case evResume:
		s.paused = false
		s, effects := cancelHide(s)
		if s.state == Suppressed {
			s.state = Visible
		}
		return s, effects
	case evHideTimer:
		return hideTimerFired(s, ev.gen)
	default:
		return s, nil
	}
}

func present(s snapshot, ev event) (snapshot, []effect) {
	switch ev.source {
	case MenuHide:
		return hide(s)
	case TrayClick:
		switch s.state {
		case Visible, Suppressed:
			return hide(s)
		case Showing:
			return s, nil
		}
	case MenuShow, ExternalActivation:
		switch s.state {
		case Visible, Suppressed:
			return s, []effect{{kind: effShow}}
		case Showing:
			return s, nil
		}
	default:
		return s, nil
	}

	s, effects := cancelHide(s)
	s.state = Showing
	s.focused = false
	s.shownAt = time.Time{}
	return s, append(effects,
		effect{kind: effPosition, anchor: ev.anchor},
		effect{kind: effShow},
		effect{kind: effShown},
	)
}

func hide(s snapshot) (snapshot, []effect) {
	if s.state == Hidden {
		return s, nil
	}
	s, effects := cancelHide(s)
	s.state = Hidden
	s.focused = false
	s.shownAt = time.Time{}
	return s, append(effects, effect{kind: effHide})
}

// focusGained leaves shownAt alone so the debounce floor still covers a
// focus-in delivered by Show itself. While Showing, evShown completes the
// transition and stamps shownAt.
func focusGained(s snapshot) (snapshot, []effect) {
	s.focused = true
	s, effects := cancelHide(s)
	if s.state != Showing {
		s.state = Visible
	}
	return s, effects
}

func focusLost(s snapshot, at time.Time, cfg Config) (snapshot, []effect) {
	s.focused = false
	s.lostAt = at

	if s.state != Visible {
		// Hidden has nothing to hide, Showing is still inside the show
		// sequence and Suppressed already absorbed a loss.
		return s, nil
	}
	if s.paused {
		s.state = Suppressed
		return s, nil
	}
	if !s.shownAt.IsZero() && at.Sub(s.shownAt) < cfg.DebounceFloor {
		return s, nil
	}
	if cfg.Strategy == HideImmediately {
		return hide(s)
	}

	s.hideGen++
	s.hidePending = true
	return s, []effect{{kind: effScheduleHide, gen: s.hideGen, delay: cfg.GraceDelay}}
}

// hideTimerFired re-checks focus and pause at expiry; only the most recent
// scheduling can hide.
func hideTimerFired(s snapshot, gen uint64) (snapshot, []effect) {
	if !s.hidePending || gen != s.hideGen {
		return s, nil
	}
	s.hidePending = false

	switch {
	case s.state != Visible || s.focused:
		return s, nil
	case s.paused:
		s.state = Suppressed
		return s, nil
	default:
		return hide(s)
	}
}

func cancelHide(s snapshot) (snapshot, []effect) {
	if !s.hidePending {
		return s, nil
	}
	s.hidePending = false
	return s, []effect{{kind: effCancelHide, gen: s.hideGen}}
}
