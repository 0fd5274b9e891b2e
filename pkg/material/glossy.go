package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// glossyIndex is the fixed refractive index of the clear coat
const glossyIndex = 1.5

// Glossy is a coated diffuse material: a Fresnel-weighted coin flip picks
// a white mirror reflection off the coat or a diffuse bounce off the base.
type Glossy struct {
	Albedo core.Vec3 // Base color under the coat
}

// NewGlossy creates a new glossy material
func NewGlossy(albedo core.Vec3) *Glossy {
	return &Glossy{Albedo: albedo}
}

// Scatter implements the Material interface for glossy scattering
func (g *Glossy) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	cosine := glossyIndex * rayIn.Direction.Dot(hit.Normal) / rayIn.Direction.Length()
	reflectance := Schlick(-cosine, glossyIndex)

	if sampler.Get1D() < reflectance {
		reflected := Reflect(rayIn.Direction.Normalize(), hit.Normal)
		scattered := core.NewRay(hit.Point, reflected)
		return ScatterResult{
			Scattered:   scattered,
			Attenuation: core.NewVec3(1, 1, 1),
		}, scattered.Direction.Dot(hit.Normal) > 0
	}

	return ScatterResult{
		Scattered:   diffuseRay(hit, sampler),
		Attenuation: g.Albedo,
	}, true
}
