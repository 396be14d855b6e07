package storage

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{R: 200, A: 255}), imaging.PNG))
	return buf.Bytes()
}

func TestNormalizeLogo_ScalesLargeImages(t *testing.T) {
	out, err := NormalizeLogo(encodePNG(t, 1024, 600), "image/png")
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestNormalizeLogo_KeepsSmallImages(t *testing.T) {
	in := encodePNG(t, 200, 100)
	out, err := NormalizeLogo(in, "image/png")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	webp := []byte("RIFF....WEBPVP8 ")
	out, err = NormalizeLogo(webp, "image/webp")
	require.NoError(t, err)
	assert.Equal(t, webp, out)
}

func TestNormalizeLogo_RejectsCorruptData(t *testing.T) {
	_, err := NormalizeLogo(pngHeader, "image/png")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
