package output

import (
	"image/png"
	"io"

	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/pkg/errors"
)

// EncodePNG writes img as an opaque 8-bit PNG
func EncodePNG(w io.Writer, img *renderer.Image) error {
	return errors.Wrap(png.Encode(w, img.RGBA()), "encoding png")
}
