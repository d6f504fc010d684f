// Package media turns client supplied images into normalized JPEG blobs.
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// ContentType of every normalized image.
	ContentType = "image/jpeg"
	// Extension of every normalized image.
	Extension = ".jpg"

	jpegQuality = 85
)

var (
	// ErrInvalidDataURI is returned when a data URI is malformed or not base64.
	ErrInvalidDataURI = errors.New("image must be a base64 data URI")
	// ErrUnsupportedImage is returned when the payload is not a decodable image.
	ErrUnsupportedImage = errors.New("unsupported or corrupt image")
)

// DecodeDataURI extracts the payload of "data:image/<type>;base64,<data>".
func DecodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(uri), ",")
	if !ok || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidDataURI
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidDataURI
	}
	if len(data) == 0 {
		return nil, ErrInvalidDataURI
	}
	return data, nil
}

// Normalize decodes raw, applies EXIF orientation, shrinks it to maxWidth
// when wider (maxWidth <= 0 keeps the size) and re-encodes it as JPEG.
// Transparent areas are flattened onto white.
func Normalize(raw []byte, maxWidth int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat := imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
