package scene

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
	"github.com/pkg/errors"
)

// Scene contains all the elements needed for rendering. A scene is
// read-only once rendering starts and may be shared by every worker.
type Scene struct {
	Name           string
	Camera         *geometry.Camera
	CameraConfig   geometry.CameraConfig
	World          *geometry.List // Objects in the scene, scanned linearly
	SamplingConfig SamplingConfig
	Background     core.Vec3 // Radiance for rays that escape the scene
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int // Image width
	Height          int // Image height
	SamplesPerPixel int // Number of passes, one sample per pixel each
	MaxDepth        int // Maximum ray bounce depth
}

// Validate reports the first out-of-range setting
func (c SamplingConfig) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Errorf("image size %dx%d must be positive", c.Width, c.Height)
	}
	if c.SamplesPerPixel < 1 {
		return errors.Errorf("samples per pixel %d must be at least 1", c.SamplesPerPixel)
	}
	if c.MaxDepth < 0 {
		return errors.Errorf("max depth %d must not be negative", c.MaxDepth)
	}
	return nil
}

// AspectRatio returns width / height
func (c SamplingConfig) AspectRatio() float64 {
	return float64(c.Width) / float64(c.Height)
}

// MergeSamplingConfig returns base with every non-zero field of override applied
func MergeSamplingConfig(base, override SamplingConfig) SamplingConfig {
	if override.Width != 0 {
		base.Width = override.Width
	}
	if override.Height != 0 {
		base.Height = override.Height
	}
	if override.SamplesPerPixel != 0 {
		base.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth != 0 {
		base.MaxDepth = override.MaxDepth
	}
	return base
}

// NewScene creates an empty scene and builds its camera for the image aspect ratio
func NewScene(name string, cameraConfig geometry.CameraConfig, samplingConfig SamplingConfig) (*Scene, error) {
	s := &Scene{
		Name:  name,
		World: geometry.NewList(),
	}
	if err := s.Configure(cameraConfig, samplingConfig); err != nil {
		return nil, err
	}
	return s, nil
}

// Configure validates the sampling config and rebuilds the camera to match it.
// Any aspect ratio in cameraConfig is replaced by the image's.
func (s *Scene) Configure(cameraConfig geometry.CameraConfig, samplingConfig SamplingConfig) error {
	if err := samplingConfig.Validate(); err != nil {
		return errors.Wrapf(err, "scene %q", s.Name)
	}
	cameraConfig.AspectRatio = samplingConfig.AspectRatio()

	camera, err := geometry.NewCamera(cameraConfig)
	if err != nil {
		return errors.Wrapf(err, "scene %q", s.Name)
	}

	s.Camera = camera
	s.CameraConfig = cameraConfig
	s.SamplingConfig = samplingConfig
	return nil
}

// Override applies the non-zero fields of override to the sampling config
func (s *Scene) Override(override SamplingConfig) error {
	return s.Configure(s.CameraConfig, MergeSamplingConfig(s.SamplingConfig, override))
}

// AddSphere adds a sphere to the scene
func (s *Scene) AddSphere(center core.Vec3, radius float64, mat material.Material) *geometry.Sphere {
	sphere := geometry.NewSphere(center, radius, mat)
	s.World.Add(sphere)
	return sphere
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}

// SetMaxDepth replaces the bounce limit. Unlike Override it also accepts zero.
func (s *Scene) SetMaxDepth(depth int) error {
	sampling := s.SamplingConfig
	sampling.MaxDepth = depth
	return s.Configure(s.CameraConfig, sampling)
}
