package geometry

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/pkg/errors"
)

// CameraConfig contains all camera configuration parameters
type CameraConfig struct {
	LookFrom      core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera looks at
	VUp           core.Vec3 // Up direction, must not be parallel to the view direction
	VFov          float64   // Vertical field of view in degrees
	AspectRatio   float64   // Width / height
	Aperture      float64   // Lens diameter; 0 gives a pinhole camera
	FocusDistance float64   // Distance to the plane in focus; 0 means |LookFrom - LookAt|
}

// Camera is an immutable thin-lens camera
type Camera struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
	u, v, w         core.Vec3 // Orthonormal camera basis
	lensRadius      float64
}

// NewCamera builds a camera from the config. Degenerate configurations are
// rejected here so that GetRay never produces NaN rays.
func NewCamera(config CameraConfig) (*Camera, error) {
	view := config.LookFrom.Subtract(config.LookAt)
	if view.LengthSquared() == 0 {
		return nil, errors.New("camera: lookFrom and lookAt are the same point")
	}
	if config.VFov <= 0 || config.VFov >= 180 {
		return nil, errors.Errorf("camera: vfov %v outside (0, 180)", config.VFov)
	}
	if config.AspectRatio <= 0 {
		return nil, errors.Errorf("camera: aspect ratio %v must be positive", config.AspectRatio)
	}
	if config.Aperture < 0 {
		return nil, errors.Errorf("camera: aperture %v must not be negative", config.Aperture)
	}

	w := view.Normalize()
	side := config.VUp.Cross(w)
	if side.LengthSquared() < 1e-18 {
		return nil, errors.Errorf("camera: vup %v is parallel to the view direction", config.VUp)
	}
	u := side.Normalize()
	v := w.Cross(u)

	focusDistance := config.FocusDistance
	if focusDistance == 0 {
		focusDistance = view.Length()
	}
	if focusDistance < 0 {
		return nil, errors.Errorf("camera: focus distance %v must be positive", focusDistance)
	}

	halfHeight := math.Tan(config.VFov * math.Pi / 360)
	halfWidth := config.AspectRatio * halfHeight

	origin := config.LookFrom
	lowerLeftCorner := origin.
		Subtract(u.Multiply(halfWidth * focusDistance)).
		Subtract(v.Multiply(halfHeight * focusDistance)).
		Subtract(w.Multiply(focusDistance))

	return &Camera{
		origin:          origin,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      u.Multiply(2 * halfWidth * focusDistance),
		vertical:        v.Multiply(2 * halfHeight * focusDistance),
		u:               u,
		v:               v,
		w:               w,
		lensRadius:      config.Aperture / 2,
	}, nil
}

// GetRay generates a ray for image plane coordinates (s, t), where 0 <= s,t <= 1
// and t grows upward. lensOffset is a sample from the unit disk.
func (c *Camera) GetRay(s, t float64, lensOffset core.Vec3) core.Ray {
	rd := lensOffset.Multiply(c.lensRadius)
	offset := c.u.Multiply(rd.X).Add(c.v.Multiply(rd.Y))

	origin := c.origin.Add(offset)
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Multiply(s)).
		Add(c.vertical.Multiply(t)).
		Subtract(origin)

	return core.NewRay(origin, direction)
}

// Origin returns the center of the lens
func (c *Camera) Origin() core.Vec3 {
	return c.origin
}

// Forward returns the unit viewing direction
func (c *Camera) Forward() core.Vec3 {
	return c.w.Negate()
}
