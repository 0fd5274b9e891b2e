package output

import (
	"io"
	"strings"

	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/pkg/errors"
)

// Format selects an image encoding
type Format string

const (
	FormatPPM Format = "ppm"
	FormatPNG Format = "png"
)

// ParseFormat accepts "ppm" or "png" in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPPM, FormatPNG:
		return f, nil
	}
	return "", errors.Errorf("unknown image format %q (want ppm or png)", s)
}

// Extension returns the file extension, without the dot
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type stored with written blobs
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/x-portable-pixmap"
}

// Encode writes img to w in format f
func (f Format) Encode(w io.Writer, img *renderer.Image) error {
	switch f {
	case FormatPPM:
		return WritePPM(w, img)
	case FormatPNG:
		return EncodePNG(w, img)
	}
	return errors.Errorf("unknown image format %q", string(f))
}
