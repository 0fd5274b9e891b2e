package renderer

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/pkg/errors"
)

// FrameBuffer accumulates radiance samples per pixel. Every pixel receives
// exactly one sample per completed pass, so a single counter serves the
// whole buffer. Row 0 is the top of the image.
//
// Concurrent AddSample calls are safe only for disjoint pixels; the
// progressive renderer guarantees this by giving each tile its own pixels.
type FrameBuffer struct {
	width, height int
	pixels        []PixelStats
	samples       int
}

// NewFrameBuffer creates a zeroed buffer
func NewFrameBuffer(width, height int) *FrameBuffer {
	return &FrameBuffer{
		width:  width,
		height: height,
		pixels: make([]PixelStats, width*height),
	}
}

// Width returns the buffer width in pixels
func (fb *FrameBuffer) Width() int { return fb.width }

// Height returns the buffer height in pixels
func (fb *FrameBuffer) Height() int { return fb.height }

// AddSample adds one radiance sample to the pixel at (x, y)
func (fb *FrameBuffer) AddSample(x, y int, color core.Vec3) {
	fb.pixels[y*fb.width+x].AddSample(color)
}

// CompletePass records that every pixel has received one more sample
func (fb *FrameBuffer) CompletePass() {
	fb.samples++
}

// Samples returns the number of completed passes
func (fb *FrameBuffer) Samples() int {
	return fb.samples
}

// Sum returns the raw accumulated radiance of a pixel
func (fb *FrameBuffer) Sum(x, y int) core.Vec3 {
	return fb.pixels[y*fb.width+x].ColorAccum
}

// Average returns the current radiance estimate for a pixel, black before
// the first completed pass
func (fb *FrameBuffer) Average(x, y int) core.Vec3 {
	if fb.samples == 0 {
		return core.Vec3{}
	}
	return fb.Sum(x, y).Divide(float64(fb.samples))
}

// Merge adds the sums and sample count of other into fb. Both buffers must
// have the same dimensions.
func (fb *FrameBuffer) Merge(other *FrameBuffer) error {
	if other.width != fb.width || other.height != fb.height {
		return errors.Errorf("cannot merge %dx%d buffer into %dx%d buffer",
			other.width, other.height, fb.width, fb.height)
	}
	for i := range fb.pixels {
		fb.pixels[i].Merge(other.pixels[i])
	}
	fb.samples += other.samples
	return nil
}

// Reset clears every pixel and the sample count
func (fb *FrameBuffer) Reset() {
	clear(fb.pixels)
	fb.samples = 0
}

// ToneMap produces the display image from the current averages. With flip
// set the rows come out bottom to top.
func (fb *FrameBuffer) ToneMap(flip bool) *Image {
	img := NewImage(fb.width, fb.height)
	for y := 0; y < fb.height; y++ {
		row := y
		if flip {
			row = fb.height - 1 - y
		}
		for x := 0; x < fb.width; x++ {
			img.Set(x, row, ToneMap(fb.Average(x, y)))
		}
	}
	return img
}

// MeanVariance returns the per-pixel variance of the running luminance
// estimate, averaged over the image. It shrinks roughly as 1/samples as the
// render converges.
func (fb *FrameBuffer) MeanVariance() float64 {
	if fb.samples == 0 || len(fb.pixels) == 0 {
		return 0
	}
	n := float64(fb.samples)
	total := 0.0
	for i := range fb.pixels {
		total += fb.pixels[i].Variance(n) / n
	}
	return total / float64(len(fb.pixels))
}

// PixelStats tracks sampling statistics for a single pixel
type PixelStats struct {
	ColorAccum       core.Vec3 // RGB accumulator for final result
	LuminanceAccum   float64   // Luminance accumulator for convergence
	LuminanceSqAccum float64   // Luminance squared for variance
}

// AddSample adds a new color sample to the pixel statistics
func (ps *PixelStats) AddSample(color core.Vec3) {
	ps.ColorAccum = ps.ColorAccum.Add(color)
	luminance := color.Luminance()
	ps.LuminanceAccum += luminance
	ps.LuminanceSqAccum += luminance * luminance
}

// Merge adds another pixel's accumulators
func (ps *PixelStats) Merge(other PixelStats) {
	ps.ColorAccum = ps.ColorAccum.Add(other.ColorAccum)
	ps.LuminanceAccum += other.LuminanceAccum
	ps.LuminanceSqAccum += other.LuminanceSqAccum
}

// Variance returns the sample variance of luminance over n samples
func (ps *PixelStats) Variance(n float64) float64 {
	if n == 0 {
		return 0
	}
	mean := ps.LuminanceAccum / n
	meanSq := ps.LuminanceSqAccum / n
	return math.Max(0, meanSq-mean*mean)
}
