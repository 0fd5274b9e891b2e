package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

func TestSphere_Hit_Miss(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(2, 0, 0), core.NewVec3(0, 1, 0))

	hit, isHit := sphere.Hit(ray, 0.001, 1000.0)
	if isHit {
		t.Errorf("Expected miss, but got hit at t=%f", hit.T)
	}
}

func TestSphere_Hit(t *testing.T) {
	mat := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, mat)

	tests := []struct {
		name           string
		rayOrigin      core.Vec3
		rayDirection   core.Vec3
		expectedT      float64
		expectedNormal core.Vec3
	}{
		{
			name:           "outside hit",
			rayOrigin:      core.NewVec3(0, 0, 2),
			rayDirection:   core.NewVec3(0, 0, -1),
			expectedT:      1.0,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
		{
			// The normal stays outward facing from inside
			name:           "inside hit",
			rayOrigin:      core.NewVec3(0, 0, 0),
			rayDirection:   core.NewVec3(0, 0, 1),
			expectedT:      1.0,
			expectedNormal: core.NewVec3(0, 0, 1),
		},
		{
			name:           "non-unit direction",
			rayOrigin:      core.NewVec3(0, 3, 0),
			rayDirection:   core.NewVec3(0, -2, 0),
			expectedT:      1.0,
			expectedNormal: core.NewVec3(0, 1, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.rayOrigin, tt.rayDirection)
			hit, isHit := sphere.Hit(ray, 0.001, 1000.0)

			if !isHit {
				t.Fatal("Expected hit, but got miss")
			}
			if math.Abs(hit.T-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got t=%f", tt.expectedT, hit.T)
			}
			if hit.Normal.Subtract(tt.expectedNormal).Length() > 1e-9 {
				t.Errorf("Expected normal %v, got %v", tt.expectedNormal, hit.Normal)
			}
			if hit.Point.Subtract(ray.At(hit.T)).Length() > 1e-12 {
				t.Errorf("Hit point %v should equal ray.At(t) %v", hit.Point, ray.At(hit.T))
			}
			if hit.Material != mat {
				t.Error("Hit record should carry the sphere's material")
			}
		})
	}
}

func TestSphere_Hit_Tangent(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(1, 0, 5), core.NewVec3(0, 0, -1))

	if _, isHit := sphere.Hit(ray, 0.001, 1000.0); isHit {
		t.Error("A ray grazing the sphere with zero discriminant should miss")
	}
}

func TestSphere_Hit_RangeLimits(t *testing.T) {
	sphere := NewSphere(core.NewVec3(0, 0, 0), 1.0, nil)
	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))

	// Roots are at t=4 and t=6
	tests := []struct {
		name      string
		tMin      float64
		tMax      float64
		expectHit bool
		expectedT float64
	}{
		{"Both roots in range", 0.001, 100, true, 4},
		{"Near root excluded", 4.5, 100, true, 6},
		{"Both roots excluded", 0.001, 3.5, false, 0},
		{"tMax equal to near root", 0.001, 4, false, 0},
		{"tMin equal to near root", 4, 100, true, 6},
		{"Behind the ray", -100, -0.5, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, isHit := sphere.Hit(ray, tt.tMin, tt.tMax)
			if isHit != tt.expectHit {
				t.Fatalf("Expected hit=%v, got %v", tt.expectHit, isHit)
			}
			if isHit && math.Abs(hit.T-tt.expectedT) > 1e-9 {
				t.Errorf("Expected t=%f, got t=%f", tt.expectedT, hit.T)
			}
		})
	}
}

func TestSphere_Hit_SymmetricRoots(t *testing.T) {
	center := core.NewVec3(0.3, -0.2, -4)
	sphere := NewSphere(center, 1.5, nil)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0.1, 0.05, -1))

	near, ok := sphere.Hit(ray, 0.001, math.Inf(1))
	if !ok {
		t.Fatal("Expected near hit")
	}
	far, ok := sphere.Hit(ray, near.T, math.Inf(1))
	if !ok {
		t.Fatal("Expected far hit")
	}

	// Both roots sit symmetrically around the closest approach to the center
	tCenter := center.Dot(ray.Direction) / ray.Direction.LengthSquared()
	if math.Abs(near.T+far.T-2*tCenter) > 1e-9 {
		t.Errorf("Expected t_near + t_far = 2*t_center: %f + %f vs %f", near.T, far.T, 2*tCenter)
	}
	for _, hit := range []material.HitRecord{near, far} {
		if math.Abs(hit.Point.Subtract(center).Length()-1.5) > 1e-9 {
			t.Errorf("Hit point %v should lie on the sphere", hit.Point)
		}
		if math.Abs(hit.Normal.Length()-1) > 1e-9 {
			t.Errorf("Normal %v should be unit length", hit.Normal)
		}
	}
}
