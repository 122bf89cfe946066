// Package camera provides the perspective camera and orbit controls used
// by the model viewer.
package camera

import (
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// Perspective is a perspective camera looking from Position at a target.
type Perspective struct {
	FOV    float32 // Vertical field of view in degrees
	Aspect float32
	Near   float32
	Far    float32

	Position math.Vec3
	Up       math.Vec3

	target     math.Vec3
	projection math.Mat4
}

// NewPerspective creates a camera at the origin looking down -Z.
func NewPerspective(fov, aspect, near, far float32) *Perspective {
	c := &Perspective{
		FOV:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     math.V3(0, 1, 0),
		target: math.V3(0, 0, -1),
	}
	c.UpdateProjectionMatrix()
	return c
}

// SetPosition moves the camera while keeping its viewing direction.
func (c *Perspective) SetPosition(p math.Vec3) {
	dir := c.target.Sub(c.Position)
	c.Position = p
	c.target = p.Add(dir)
}

// LookAt aims the camera at a world-space point.
func (c *Perspective) LookAt(target math.Vec3) {
	if target == c.Position {
		return
	}
	c.target = target
}

// Target returns the point the camera is looking at.
func (c *Perspective) Target() math.Vec3 {
	return c.target
}

// SetAspect changes the aspect ratio and rebuilds the projection.
func (c *Perspective) SetAspect(aspect float32) {
	c.Aspect = aspect
	c.UpdateProjectionMatrix()
}

// UpdateProjectionMatrix must be called after changing FOV, Aspect, Near or Far.
func (c *Perspective) UpdateProjectionMatrix() {
	c.projection = math.Perspective(math.Radians(c.FOV), c.Aspect, c.Near, c.Far)
}

// ViewMatrix returns the world-to-camera transform.
func (c *Perspective) ViewMatrix() math.Mat4 {
	return math.LookAt(c.Position, c.target, c.Up)
}

// ProjectionMatrix returns the camera-to-clip transform.
func (c *Perspective) ProjectionMatrix() math.Mat4 {
	return c.projection
}

// ViewProjection returns projection * view.
func (c *Perspective) ViewProjection() math.Mat4 {
	return c.projection.Mul(c.ViewMatrix())
}

// WorldPosition returns the camera position.
func (c *Perspective) WorldPosition() math.Vec3 {
	return c.Position
}
