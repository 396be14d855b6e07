package storage

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// MaxLogoDimension bounds the width and height of stored logos
const MaxLogoDimension = 512

var encodableFormats = map[string]imaging.Format{
	"image/jpeg": imaging.JPEG,
	"image/png":  imaging.PNG,
}

// NormalizeLogo scales JPEG and PNG logos down to fit MaxLogoDimension,
// honoring EXIF orientation. Smaller images and WebP are returned unchanged.
func NormalizeLogo(data []byte, contentType string) ([]byte, error) {
	format, ok := encodableFormats[contentType]
	if !ok {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if fits(img.Bounds()) {
		return data, nil
	}

	resized := imaging.Fit(img, MaxLogoDimension, MaxLogoDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode logo: %w", err)
	}
	return buf.Bytes(), nil
}

func fits(b image.Rectangle) bool {
	return b.Dx() <= MaxLogoDimension && b.Dy() <= MaxLogoDimension
}
