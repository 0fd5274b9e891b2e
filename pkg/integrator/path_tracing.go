package integrator

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// HitEpsilon is the smallest ray parameter accepted as a hit; it keeps a
// scattered ray from re-intersecting the surface it left.
const HitEpsilon = 0.001

// PathTracingIntegrator implements depth-bounded unidirectional path tracing
// with no Russian roulette. Paths end when a material absorbs or emits, or
// after MaxDepth bounces.
type PathTracingIntegrator struct {
	MaxDepth   int       // Bounces allowed after the camera ray's first hit
	Background core.Vec3 // Radiance returned for rays that escape
}

// NewPathTracingIntegrator creates a new path tracing integrator with a black
// background
func NewPathTracingIntegrator(maxDepth int) *PathTracingIntegrator {
	return &PathTracingIntegrator{MaxDepth: maxDepth}
}

// RayColor computes the color for a single camera ray
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, world geometry.Hittable, sampler core.Sampler) core.Vec3 {
	return pt.radiance(ray, world, sampler, 0)
}

func (pt *PathTracingIntegrator) radiance(ray core.Ray, world geometry.Hittable, sampler core.Sampler, depth int) core.Vec3 {
	hit, isHit := world.Hit(ray, HitEpsilon, math.Inf(1))
	if !isHit {
		return pt.Background
	}

	emitted := material.Emitted(hit.Material)
	if depth >= pt.MaxDepth {
		return emitted
	}

	scatter, didScatter := hit.Material.Scatter(ray, hit, sampler)
	if !didScatter {
		return emitted
	}

	incoming := pt.radiance(scatter.Scattered, world, sampler, depth+1)
	return emitted.Add(scatter.Attenuation.MultiplyVec(incoming))
}
