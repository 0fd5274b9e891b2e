package scene

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// originCamera looks down -z from the origin through a pinhole
func originCamera() geometry.CameraConfig {
	return geometry.CameraConfig{
		LookFrom: core.NewVec3(0, 0, 0),
		LookAt:   core.NewVec3(0, 0, -1),
		VUp:      core.NewVec3(0, 1, 0),
		VFov:     90.0,
	}
}

// NewGroundScene creates a scene with nothing but a huge diffuse sphere
// standing in for a ground plane. The upper half of the image sees only
// background.
func NewGroundScene() (*Scene, error) {
	s, err := NewScene("ground", originCamera(), SamplingConfig{
		Width:           200,
		Height:          100,
		SamplesPerPixel: 1,
		MaxDepth:        1,
	})
	if err != nil {
		return nil, err
	}

	s.AddSphere(core.NewVec3(0, -1000, -1), 1000, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	return s, nil
}

// NewLightScene creates a scene containing a single emitting sphere
func NewLightScene() (*Scene, error) {
	s, err := NewScene("light", originCamera(), SamplingConfig{
		Width:           200,
		Height:          100,
		SamplesPerPixel: 4,
		MaxDepth:        50,
	})
	if err != nil {
		return nil, err
	}

	s.AddSphere(core.NewVec3(0, 0, -1), 0.5, material.NewDiffuseLight(core.NewVec3(0.9, 0.6, 0.3)))
	return s, nil
}

// NewLitSphereScene creates a diffuse sphere lit by a spherical area light above it
func NewLitSphereScene() (*Scene, error) {
	cameraConfig := geometry.CameraConfig{
		LookFrom: core.NewVec3(0, 0.5, 2),
		LookAt:   core.NewVec3(0, 0, -1),
		VUp:      core.NewVec3(0, 1, 0),
		VFov:     50.0,
	}

	s, err := NewScene("lit-sphere", cameraConfig, SamplingConfig{
		Width:           200,
		Height:          150,
		SamplesPerPixel: 100,
		MaxDepth:        10,
	})
	if err != nil {
		return nil, err
	}

	s.AddSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.7, 0.7, 0.7)))
	s.AddSphere(core.NewVec3(0, 3, -1), 1.5, material.NewDiffuseLight(core.NewVec3(4, 4, 4)))
	return s, nil
}
