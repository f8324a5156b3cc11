//go:build windows

package tray

import (
	"bytes"
	"encoding/binary"
	"image/png"

	"github.com/example/alerttray/internal/logging"
)

// platformNormalizeIcon wraps a PNG in a single-image ICO container, which
// is what the Windows notification area accepts.
func platformNormalizeIcon(data []byte) []byte {
	if isICO(data) {
		return data
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		logging.Debugf("tray icon is not a png: %v", err)
		return nil
	}

	ico, err := wrapPNGAsICO(data, cfg.Width, cfg.Height)
	if err != nil {
		logging.Debugf("failed to wrap tray icon as ico: %v", err)
		return nil
	}
	return ico
}

type icoHeader struct {
	Reserved uint16
	Type     uint16
	Count    uint16
}

type icoDirEntry struct {
	Width      uint8
	Height     uint8
	Colors     uint8
	Reserved   uint8
	Planes     uint16
	BitCount   uint16
	BytesInRes uint32
	Offset     uint32
}

func wrapPNGAsICO(pngData []byte, width, height int) ([]byte, error) {
	// Sizes of 256 and above are stored as 0.
	dimension := func(v int) uint8 {
		if v <= 0 || v >= 256 {
			return 0
		}
		return uint8(v)
	}

	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, icoHeader{Type: 1, Count: 1}); err != nil {
		return nil, err
	}
	entry := icoDirEntry{
		Width:      dimension(width),
		Height:     dimension(height),
		Planes:     1,
		BitCount:   32,
		BytesInRes: uint32(len(pngData)),
		Offset:     6 + 16,
	}
	if err := binary.Write(buf, binary.LittleEndian, entry); err != nil {
		return nil, err
	}
	buf.Write(pngData)
	return buf.Bytes(), nil
}

func isICO(data []byte) bool {
	return len(data) >= 4 && data[0] == 0x00 && data[1] == 0x00 && data[2] == 0x01 && data[3] == 0x00
}
