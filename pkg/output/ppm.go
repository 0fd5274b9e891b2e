// Package output encodes tone-mapped frames and writes them to blob storage.
package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/pkg/errors"
)

// WritePPM writes img as an ASCII PPM: a "P3" header with the dimensions and
// a maximum value of 255, then one "r g b" triple per line, rows top first.
func WritePPM(w io.Writer, img *renderer.Image) error {
	buf := bufio.NewWriterSize(w, 1<<16)
	fmt.Fprintf(buf, "P3\n%d %d\n255\n", img.Width, img.Height)
	for _, c := range img.Pix {
		fmt.Fprintf(buf, "%d %d %d\n", c.R, c.G, c.B)
	}
	// bufio keeps the first write error and reports it here
	return errors.Wrap(buf.Flush(), "writing ppm")
}
