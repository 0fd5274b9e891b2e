package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Material decides whether and how light scatters at a surface.
// Implementations are immutable and keep no state between calls, so one
// instance may be shared by many surfaces and by concurrent workers.
type Material interface {
	// Scatter returns the attenuation and scattered ray for an incoming ray,
	// or false when the ray is absorbed.
	Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool)
}

// Emitter interface for materials that emit light
type Emitter interface {
	Emit() core.Vec3
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Scattered   core.Ray  // The scattered ray
	Attenuation core.Vec3 // Color attenuation
}

// HitRecord contains information about a ray-object intersection.
// Normal is unit length but not oriented against the ray; compare its sign
// with the ray direction to tell inside from outside.
type HitRecord struct {
	T        float64   // Parameter t along the ray
	Point    core.Vec3 // Point of intersection
	Normal   core.Vec3 // Surface normal at intersection
	Material Material  // Material of the hit object
}

// Emitted returns the light emitted by m, or black for materials that only
// reflect.
func Emitted(m Material) core.Vec3 {
	if emitter, ok := m.(Emitter); ok {
		return emitter.Emit()
	}
	return core.Vec3{}
}
