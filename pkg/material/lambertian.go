package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Lambertian represents a perfectly diffuse material
type Lambertian struct {
	Albedo core.Vec3 // Base color/reflectance
}

// NewLambertian creates a new lambertian material
func NewLambertian(albedo core.Vec3) *Lambertian {
	return &Lambertian{Albedo: albedo}
}

// Scatter implements the Material interface for lambertian scattering.
// The scattered direction points from the hit to a random point in the unit
// sphere tangent to the surface, which always scatters.
func (l *Lambertian) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	return ScatterResult{
		Scattered:   diffuseRay(hit, sampler),
		Attenuation: l.Albedo,
	}, true
}

// diffuseRay picks target = p + n + random point in unit sphere
func diffuseRay(hit HitRecord, sampler core.Sampler) core.Ray {
	target := hit.Point.Add(hit.Normal).Add(core.RandomInUnitSphere(sampler))
	return core.NewRay(hit.Point, target.Subtract(hit.Point))
}
