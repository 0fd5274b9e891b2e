package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// DiffuseLight represents a light-emitting material
type DiffuseLight struct {
	Emission core.Vec3 // Emitted light color/intensity
}

// NewDiffuseLight creates a new emissive material
func NewDiffuseLight(emission core.Vec3) *DiffuseLight {
	return &DiffuseLight{Emission: emission}
}

// Scatter implements the Material interface for emissive materials.
// Lights absorb every incoming ray and only contribute their emission.
func (e *DiffuseLight) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	return ScatterResult{}, false
}

// Emit returns the emitted light for this material
func (e *DiffuseLight) Emit() core.Vec3 {
	return e.Emission
}
