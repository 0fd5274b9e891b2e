package integrator

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor estimates the radiance arriving along ray from the world.
	// Implementations draw every random number from sampler.
	RayColor(ray core.Ray, world geometry.Hittable, sampler core.Sampler) core.Vec3
}
