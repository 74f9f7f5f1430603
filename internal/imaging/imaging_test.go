package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, fill(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, fill(w, h, color.RGBA{0, 0, 255, 255})))
	return buf.Bytes()
}

func decodedBounds(t *testing.T, data []byte) image.Rectangle {
	t.Helper()
	img, format, err := image.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	return img.Bounds()
}

func TestThumbnailDownscalesLandscape(t *testing.T) {
	out, err := Thumbnail(bytes.NewReader(encodeJPEG(t, 1280, 640)), ThumbnailDimension)
	require.NoError(t, err)

	b := decodedBounds(t, out)
	assert.Equal(t, ThumbnailDimension, b.Dx())
	assert.Equal(t, ThumbnailDimension/2, b.Dy())
}

func TestThumbnailPNGBecomesJPEG(t *testing.T) {
	out, err := Thumbnail(bytes.NewReader(encodePNG(t, 400, 800)), ThumbnailDimension)
	require.NoError(t, err)

	b := decodedBounds(t, out)
	assert.Equal(t, ThumbnailDimension/2, b.Dx())
	assert.Equal(t, ThumbnailDimension, b.Dy())
}

func TestThumbnailSmallImageNotUpscaled(t *testing.T) {
	out, err := Thumbnail(bytes.NewReader(encodeJPEG(t, 50, 50)), ThumbnailDimension)
	require.NoError(t, err)

	b := decodedBounds(t, out)
	assert.Equal(t, 50, b.Dx())
	assert.Equal(t, 50, b.Dy())
}

func TestThumbnailRejectsNonImages(t *testing.T) {
	for _, data := range [][]byte{
		[]byte("%PDF-1.7 acta de entrega"),
		[]byte("GIF89a..."),
	} {
		_, err := Thumbnail(bytes.NewReader(data), ThumbnailDimension)
		assert.ErrorIs(t, err, ErrUnsupported)
	}
}

// hugePNG returns a PNG whose IHDR declares w x h 8-bit grayscale pixels
// followed by a short IDAT that could never fill them.
func hugePNG(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(typ string, data []byte) {
		binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		crc := crc32.NewIEEE()
		crc.Write([]byte(typ))
		crc.Write(data)
		buf.WriteString(typ)
		buf.Write(data)
		binary.Write(&buf, binary.BigEndian, crc.Sum32())
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale
	chunk("IHDR", ihdr)
	chunk("IDAT", bytes.Repeat([]byte{0}, 1024))
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestThumbnailRejectsOversizedDimensions(t *testing.T) {
	for _, side := range []uint32{20000, 100000} {
		_, err := Thumbnail(bytes.NewReader(hugePNG(side, side)), ThumbnailDimension)
		require.ErrorIs(t, err, ErrTooLarge)
	}
}

func TestThumbnailAcceptsImageAtPixelLimit(t *testing.T) {
	// 8000x5000 is exactly MaxPixels: it passes the header check and then
	// fails on the short pixel data.
	_, err := Thumbnail(bytes.NewReader(hugePNG(8000, 5000)), ThumbnailDimension)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTooLarge)
}
