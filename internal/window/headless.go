package window

import (
	"image"
	"sync"

	"github.com/example/alerttray/internal/logging"
)

// Headless is a Surface without a toolkit behind it. It is used when the
// binary is built without a GUI and in tests; Focus and RequestClose let
// the caller play the toolkit's part.
type Headless struct {
	mu       sync.Mutex
	visible  bool
	position image.Point
	onFocus  func(bool)
	onClose  func()
}

func (h *Headless) Show() {
	h.mu.Lock()
	h.visible = true
	h.mu.Unlock()
	logging.Debugf("window: shown")
}

func (h *Headless) Hide() {
	h.mu.Lock()
	h.visible = false
	h.mu.Unlock()
	logging.Debugf("window: hidden")
}

func (h *Headless) IsVisible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

func (h *Headless) SetPosition(x, y int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.position = image.Pt(x, y)
}

// Position returns the last position set.
func (h *Headless) Position() image.Point {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position
}

func (h *Headless) OnFocusChanged(fn func(bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onFocus = fn
}

func (h *Headless) OnCloseRequested(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClose = fn
}

// Focus reports a focus change as the toolkit would.
func (h *Headless) Focus(gained bool) {
	h.mu.Lock()
	fn := h.onFocus
	h.mu.Unlock()
	if fn != nil {
		fn(gained)
	}
}

// RequestClose reports a close button press.
func (h *Headless) RequestClose() {
	h.mu.Lock()
	fn := h.onClose
	h.mu.Unlock()
	if fn != nil {
		fn()
	}
}
