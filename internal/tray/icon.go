package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/example/alerttray/internal/logging"
)

const iconSize = 32

var (
	signedOutColor = color.NRGBA{R: 0x8c, G: 0x95, B: 0x9f, A: 0xff}
	signedInColor  = color.NRGBA{R: 0x2d, G: 0xa4, B: 0x4e, A: 0xff}

	iconMu    sync.Mutex
	iconCache = map[bool][]byte{}
)

// StatusIcon returns the tray icon for the given sign-in state in the
// platform's preferred container.
func StatusIcon(signedIn bool) []byte {
	iconMu.Lock()
	defer iconMu.Unlock()

	if cached, ok := iconCache[signedIn]; ok {
		return cloneIcon(cached)
	}

	fill := signedOutColor
	if signedIn {
		fill = signedInColor
	}
	raw, err := renderDot(fill)
	if err != nil {
		logging.Debugf("failed to render tray icon: %v", err)
		return nil
	}

	icon := normalizedIcon(raw)
	iconCache[signedIn] = icon
	return cloneIcon(icon)
}

// renderDot draws a filled circle on a transparent square.
func renderDot(fill color.NRGBA) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	const (
		center = iconSize / 2
		radius = iconSize/2 - 2
	)
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx, dy := x-center, y-center
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x, y, fill)
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func cloneIcon(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp
}

func normalizedIcon(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	normalized := platformNormalizeIcon(data)
	if len(normalized) == 0 {
		return cloneIcon(data)
	}
	return normalized
}
