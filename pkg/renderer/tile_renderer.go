package renderer

import (
	"image"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/integrator"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// TileRenderer handles the actual rendering of individual tiles using an integrator
type TileRenderer struct {
	scene              *scene.Scene
	integrator         integrator.Integrator
	lensSamplePerPixel bool
}

// NewTileRenderer creates a new tile renderer with the given scene and integrator.
// With lensSamplePerPixel set every pixel draws its own lens sample instead of
// using the pass-wide one.
func NewTileRenderer(s *scene.Scene, integratorInst integrator.Integrator, lensSamplePerPixel bool) *TileRenderer {
	return &TileRenderer{
		scene:              s,
		integrator:         integratorInst,
		lensSamplePerPixel: lensSamplePerPixel,
	}
}

// RenderTileBounds takes one sample for every pixel within bounds and adds
// it to the frame buffer
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, fb *FrameBuffer, sampler core.Sampler, lensOffset core.Vec3) {
	camera := tr.scene.Camera
	width := float64(fb.Width())
	height := float64(fb.Height())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		// Image plane t grows upward while rows grow downward
		j := float64(fb.Height() - 1 - y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			u := (float64(x) + sampler.Get1D()) / width
			v := (j + sampler.Get1D()) / height

			offset := lensOffset
			if tr.lensSamplePerPixel {
				offset = core.RandomInUnitDisk(sampler)
			}

			ray := camera.GetRay(u, v, offset)
			fb.AddSample(x, y, tr.integrator.RayColor(ray, tr.scene.World, sampler))
		}
	}
}
