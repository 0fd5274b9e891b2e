package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// RGB is an 8-bit display color
type RGB struct {
	R, G, B uint8
}

// Packed returns the color as 0xRRGGBB
func (c RGB) Packed() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// ToneMap converts a linear radiance estimate to a display color: clamp to
// [0,1], gamma 2 via square root, then quantize with floor(255.999*c).
func ToneMap(c core.Vec3) RGB {
	c = c.Clamp(0, 1).Sqrt()
	return RGB{
		R: quantize(c.X),
		G: quantize(c.Y),
		B: quantize(c.Z),
	}
}

func quantize(channel float64) uint8 {
	return uint8(math.Floor(255.999 * channel))
}

// Image is a tone-mapped frame. Pix holds Height rows of Width pixels,
// ordered as they are to be displayed, first row on top.
type Image struct {
	Width  int
	Height int
	Pix    []RGB
}

// NewImage creates a black image
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]RGB, width*height)}
}

// At returns the pixel at column x of row y
func (img *Image) At(x, y int) RGB {
	return img.Pix[y*img.Width+x]
}

// Set stores the pixel at column x of row y
func (img *Image) Set(x, y int, c RGB) {
	img.Pix[y*img.Width+x] = c
}

// Packed returns every pixel as 0xRRGGBB in display order, the layout a
// live framebuffer display expects
func (img *Image) Packed() []uint32 {
	packed := make([]uint32, len(img.Pix))
	for i, c := range img.Pix {
		packed[i] = c.Packed()
	}
	return packed
}

// RGBA converts the image to an opaque *image.RGBA for the image encoders
func (img *Image) RGBA() *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := img.At(x, y)
			rgba.SetRGBA(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return rgba
}
