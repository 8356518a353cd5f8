package favicon

import (
	"bytes"
	"encoding/binary"
	"image"
	"strings"

	// Registered so image.DecodeConfig can read the common bitmap formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// IsSVG reports whether the server labeled the bytes as SVG.
func (i *Image) IsSVG() bool {
	return strings.Contains(strings.ToLower(i.ContentType), "image/svg+xml")
}

// IsImage reports whether the server labeled the bytes as an image at all.
func (i *Image) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(i.ContentType), "image/")
}

// Dimensions decodes the pixel size of a bitmap favicon. ICO containers are
// read directly from their directory header since the standard decoders do
// not handle them. Returns ok=false when the bytes cannot be decoded.
func (i *Image) Dimensions() (width, height int, ok bool) {
	if len(i.Content) == 0 {
		return 0, 0, false
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(i.Content)); err == nil {
		return cfg.Width, cfg.Height, true
	}
	return icoDimensions(i.Content)
}

// icoDimensions reads the largest entry of an ICO directory. Layout: a
// 6-byte ICONDIR (reserved=0, type=1, count) followed by 16-byte entries
// whose first two bytes are width and height, with 0 meaning 256.
func icoDimensions(data []byte) (int, int, bool) {
	if len(data) < 6 {
		return 0, 0, false
	}
	if binary.LittleEndian.Uint16(data[0:2]) != 0 || binary.LittleEndian.Uint16(data[2:4]) != 1 {
		return 0, 0, false
	}
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	if count == 0 {
		return 0, 0, false
	}

	bestW, bestH := 0, 0
	for n := 0; n < count; n++ {
		offset := 6 + n*16
		if offset+16 > len(data) {
			break
		}
		w, h := int(data[offset]), int(data[offset+1])
		if w == 0 {
			w = 256
		}
		if h == 0 {
			h = 256
		}
		if w*h > bestW*bestH {
			bestW, bestH = w, h
		}
	}
	if bestW == 0 {
		return 0, 0, false
	}
	return bestW, bestH, true
}
