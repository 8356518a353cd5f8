package favicon

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// icoBytes builds a minimal ICO directory with the given entry sizes; the
// image payloads are absent but DecodeConfig never reads that far.
func icoBytes(sizes ...[2]byte) []byte {
	data := []byte{0, 0, 1, 0, byte(len(sizes)), 0}
	for _, s := range sizes {
		entry := make([]byte, 16)
		entry[0], entry[1] = s[0], s[1]
		data = append(data, entry...)
	}
	return data
}

func TestDimensions(t *testing.T) {
	t.Parallel()

	t.Run("png", func(t *testing.T) {
		img := &Image{Content: pngBytes(t, 32, 48), ContentType: "image/png"}
		w, h, ok := img.Dimensions()
		require.True(t, ok)
		require.Equal(t, 32, w)
		require.Equal(t, 48, h)
	})

	t.Run("ico picks largest entry", func(t *testing.T) {
		img := &Image{Content: icoBytes([2]byte{16, 16}, [2]byte{48, 48}), ContentType: "image/x-icon"}
		w, h, ok := img.Dimensions()
		require.True(t, ok)
		require.Equal(t, 48, w)
		require.Equal(t, 48, h)
	})

	t.Run("ico zero byte means 256", func(t *testing.T) {
		img := &Image{Content: icoBytes([2]byte{0, 0}), ContentType: "image/x-icon"}
		w, h, ok := img.Dimensions()
		require.True(t, ok)
		require.Equal(t, 256, w)
		require.Equal(t, 256, h)
	})

	t.Run("garbage bytes fail", func(t *testing.T) {
		img := &Image{Content: []byte("not an image"), ContentType: "image/png"}
		_, _, ok := img.Dimensions()
		require.False(t, ok)
	})

	t.Run("empty content fails", func(t *testing.T) {
		img := &Image{}
		_, _, ok := img.Dimensions()
		require.False(t, ok)
	})
}

func TestContentTypeChecks(t *testing.T) {
	t.Parallel()

	require.True(t, (&Image{ContentType: "image/svg+xml"}).IsSVG())
	require.True(t, (&Image{ContentType: "image/svg+xml; charset=utf-8"}).IsSVG())
	require.False(t, (&Image{ContentType: "image/png"}).IsSVG())
	require.True(t, (&Image{ContentType: "image/png"}).IsImage())
	require.False(t, (&Image{ContentType: "text/html"}).IsImage())
	require.False(t, (&Image{}).IsImage())
}
