package window

import (
	"image"
	"math"

	"github.com/example/alerttray/internal/visibility"
)

// Logical window geometry before display scaling.
const (
	Width         = 420
	Height        = 600
	Margin        = 10
	TaskbarHeight = 48
)

// Display describes the screen the indicator lives on. WorkArea excludes
// the menu bar; Scale is the device pixel ratio.
type Display struct {
	WorkArea image.Rectangle
	Scale    float64
}

func (d Display) scaled(v int) int {
	scale := d.Scale
	if scale <= 0 {
		scale = 1
	}
	return int(math.Round(float64(v) * scale))
}

// PlaceNear returns the top-left corner for the window. With an unknown
// anchor the window goes to the top-right corner on macOS, where the
// indicator sits in the menu bar, and above the taskbar in the bottom-right
// corner elsewhere. A known anchor centres the window on it, opening
// downwards from an indicator in the top half of the screen.
func PlaceNear(d Display, anchor visibility.Anchor, goos string) image.Point {
	w, h := d.scaled(Width), d.scaled(Height)
	margin := d.scaled(Margin)
	area := d.WorkArea

	var p image.Point
	switch {
	case anchor.Known:
		p.X = anchor.X - w/2
		if anchor.Y < area.Min.Y+area.Dy()/2 {
			p.Y = anchor.Y + margin
		} else {
			p.Y = anchor.Y - h - margin
		}
	case goos == "darwin":
		p = image.Pt(area.Max.X-w-margin, area.Min.Y+margin)
	default:
		p = image.Pt(area.Max.X-w-margin, area.Max.Y-h-margin-d.scaled(TaskbarHeight))
	}

	return clamp(p, image.Pt(w, h), area, margin)
}

func clamp(p, size image.Point, area image.Rectangle, margin int) image.Point {
	minX, maxX := area.Min.X+margin, area.Max.X-size.X-margin
	minY, maxY := area.Min.Y+margin, area.Max.Y-size.Y-margin
	if maxX < minX {
		maxX = minX
	}
	if maxY < minY {
		maxY = minY
	}
	p.X = min(max(p.X, minX), maxX)
	p.Y = min(max(p.Y, minY), maxY)
	return p
}
