package scene

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// NewDefaultScene creates the showcase scene: glossy, metal and glass balls on
// a blue floor in a corner of two walls, lit by one large spherical light
func NewDefaultScene() (*Scene, error) {
	cameraConfig := geometry.CameraConfig{
		LookFrom: core.NewVec3(0, 1.5, 3),
		LookAt:   core.NewVec3(0, 0.5, -1),
		VUp:      core.NewVec3(0, 1, 0),
		VFov:     40.0,
		Aperture: 0.25,
		// Focus on lookAt
		FocusDistance: 0.0,
	}

	samplingConfig := SamplingConfig{
		Width:           960,
		Height:          400,
		SamplesPerPixel: 800,
		MaxDepth:        50,
	}

	s, err := NewScene("default", cameraConfig, samplingConfig)
	if err != nil {
		return nil, err
	}

	// Floor and walls share one material
	wall := material.NewLambertian(core.NewVec3(0.15, 0.26, 0.6))

	s.AddSphere(core.NewVec3(0, -1000, -1), 1000, wall)
	s.AddSphere(core.NewVec3(0, 0, -10002.25), 10000, wall)
	s.AddSphere(core.NewVec3(-10002.5, 0, -1), 10000, wall)

	s.AddSphere(core.NewVec3(-1.2, 0.45, -0.7), 0.45, material.NewGlossy(core.NewVec3(0.7, 0.1, 0.25)))
	s.AddSphere(core.NewVec3(0, 0.5, -1), 0.5, material.NewGlossy(core.NewVec3(1.0, 0.2, 0.4)))
	s.AddSphere(core.NewVec3(1.2, 0.3, -0.7), 0.3, material.NewMetal(core.NewVec3(0.75, 0.75, 0.75), 0.0))
	s.AddSphere(core.NewVec3(2.0, 0.3, -0.7), 0.3, material.NewGlossy(core.NewVec3(0.25, 0.45, 0.65)))
	s.AddSphere(core.NewVec3(0.45, 0.3, -0.2), 0.3, material.NewDielectric(core.NewVec3(0.96, 0.96, 0.98), 1.5))
	s.AddSphere(core.NewVec3(-0.45, 0.25, -0.25), 0.25, material.NewGlossy(core.NewVec3(0.2, 1.0, 0.55)))

	// Large distant light up and to the right
	s.AddSphere(core.NewVec3(30, 20, 0), 30, material.NewDiffuseLight(core.NewVec3(2.2, 2.0, 3.3)))

	s.AddSphere(core.NewVec3(-1.0, 0.35, 0.5), 0.35, material.NewGlossy(core.NewVec3(1.0, 0.2, 0.55)))

	return s, nil
}
