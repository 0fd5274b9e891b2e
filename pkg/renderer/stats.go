package renderer

import "time"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Pass            int           // Passes completed so far
	TotalPasses     int           // Passes planned
	TotalPixels     int           // Total number of pixels rendered
	SamplesPerPixel int           // Samples accumulated in every pixel
	TotalSamples    int           // Total number of samples taken
	PassTime        time.Duration // Wall time of the latest pass
	Elapsed         time.Duration // Wall time since the first pass started
	MeanVariance    float64       // Mean per-pixel variance of the luminance estimate
}

// CalculateAverageLuminance returns the mean luminance of a tone-mapped image
func CalculateAverageLuminance(img *Image) float64 {
	if len(img.Pix) == 0 {
		return 0
	}
	total := 0.0
	for _, c := range img.Pix {
		total += 0.2126*float64(c.R)/255 + 0.7152*float64(c.G)/255 + 0.0722*float64(c.B)/255
	}
	return total / float64(len(img.Pix))
}
