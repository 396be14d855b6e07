package storage

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestDetectImage(t *testing.T) {
	contentType, ext, err := DetectImage(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, ".png", ext)

	_, _, err = DetectImage([]byte("%PDF-1.7 not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, err = DetectImage(nil)
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, MaxImageSize)...)
	_, _, err = DetectImage(big)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey("/logos/", "My Center Logo.PNG", ".png")
	assert.True(t, strings.HasPrefix(key, "logos/"))
	assert.True(t, strings.HasSuffix(key, "_my-center-logo.png"))

	other := GenerateKey("logos", "My Center Logo.PNG", ".png")
	assert.NotEqual(t, key, other)
}

func TestURL(t *testing.T) {
	s := &S3Storage{bucket: "lc", endpoint: "fra1.digitaloceanspaces.com"}
	assert.Equal(t, "https://lc.fra1.digitaloceanspaces.com/logos/a.png", s.URL("logos/a.png"))

	s.cdnURL = "https://cdn.example.com"
	assert.Equal(t, "https://cdn.example.com/logos/a.png", s.URL("logos/a.png"))
}

func TestNewS3Storage_RequiresConfig(t *testing.T) {
	_, err := NewS3Storage(Config{Bucket: "lc"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
