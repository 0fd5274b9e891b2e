package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// refractionJitter is the radius of the random offset applied to the origin
// of refracted rays
const refractionJitter = 0.005

// Dielectric represents a transparent material like glass that can both reflect and refract
type Dielectric struct {
	Attenuation     core.Vec3 // Tint applied to every scattered ray
	RefractiveIndex float64   // Index of refraction (e.g., 1.5 for glass)
}

// NewDielectric creates a new dielectric material
func NewDielectric(attenuation core.Vec3, refractiveIndex float64) *Dielectric {
	return &Dielectric{Attenuation: attenuation, RefractiveIndex: refractiveIndex}
}

// Scatter implements the Material interface for dielectric scattering.
// A dielectric always scatters: either a Fresnel-weighted reflection or a
// refraction, with reflection forced on total internal reflection.
func (d *Dielectric) Scatter(rayIn core.Ray, hit HitRecord, sampler core.Sampler) (ScatterResult, bool) {
	direction := rayIn.Direction
	dot := direction.Dot(hit.Normal)

	var outwardNormal core.Vec3
	var niOverNt, cosine float64
	if dot > 0 {
		// Leaving the medium. The cosine keeps the extra factor of the
		// refractive index used by the reference renders.
		outwardNormal = hit.Normal.Negate()
		niOverNt = d.RefractiveIndex
		cosine = d.RefractiveIndex * dot / direction.Length()
	} else {
		outwardNormal = hit.Normal
		niOverNt = 1.0 / d.RefractiveIndex
		cosine = -dot / direction.Length()
	}

	reflectProbability := 1.0
	refracted, canRefract := Refract(direction, outwardNormal, niOverNt)
	if canRefract {
		reflectProbability = Schlick(cosine, d.RefractiveIndex)
	}

	var scattered core.Ray
	if sampler.Get1D() < reflectProbability {
		scattered = core.NewRay(hit.Point, Reflect(direction, hit.Normal))
	} else {
		origin := hit.Point.Add(core.RandomInUnitSphere(sampler).Multiply(refractionJitter))
		scattered = core.NewRay(origin, refracted)
	}

	return ScatterResult{
		Scattered:   scattered,
		Attenuation: d.Attenuation,
	}, true
}
