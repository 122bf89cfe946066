package camera

import (
	"github.com/chewxy/math32"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/input"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

const polarEpsilon = 0.000001

// OrbitControls rotates, zooms and pans a camera around a target point.
// Pointer input only accumulates deltas; Update applies them once per frame.
type OrbitControls struct {
	Target math.Vec3

	EnableDamping bool
	DampingFactor float32

	RotateSpeed float32
	ZoomSpeed   float32
	PanSpeed    float32

	MinDistance float32
	MaxDistance float32
	MinPolar    float32
	MaxPolar    float32

	camera *Perspective

	deltaTheta float32
	deltaPhi   float32
	scale      float32
	panOffset  math.Vec3

	viewportHeight int
	rotating       bool
	panning        bool
	disposed       bool
}

// NewOrbitControls binds controls to a camera.
func NewOrbitControls(cam *Perspective) *OrbitControls {
	return &OrbitControls{
		DampingFactor:  0.05,
		RotateSpeed:    1.0,
		ZoomSpeed:      1.0,
		PanSpeed:       1.0,
		MinDistance:    0,
		MaxDistance:    math32.Inf(1),
		MinPolar:       0,
		MaxPolar:       math32.Pi,
		camera:         cam,
		scale:          1,
		viewportHeight: 1,
	}
}

// SetViewportHeight sets the pixel height used to scale drag deltas.
func (c *OrbitControls) SetViewportHeight(h int) {
	if h > 0 {
		c.viewportHeight = h
	}
}

// HandleDrag rotates by a pointer drag delta in pixels.
func (c *OrbitControls) HandleDrag(deltaX, deltaY float32) {
	h := float32(c.viewportHeight)
	c.deltaTheta -= 2 * math32.Pi * deltaX / h * c.RotateSpeed
	c.deltaPhi -= 2 * math32.Pi * deltaY / h * c.RotateSpeed
}

// HandleZoom dollies towards the target for positive wheel deltas.
func (c *OrbitControls) HandleZoom(delta float32) {
	if delta == 0 {
		return
	}
	step := math32.Pow(0.95, c.ZoomSpeed)
	if delta > 0 {
		c.scale *= step
	} else {
		c.scale /= step
	}
}

// HandlePan moves the target in the camera plane by a pixel delta.
func (c *OrbitControls) HandlePan(deltaX, deltaY float32) {
	if c.disposed {
		return
	}
	offset := c.camera.Position.Sub(c.Target)
	// Distance covered by one pixel at the target depth
	perPixel := 2 * offset.Length() * math32.Tan(math.Radians(c.camera.FOV)/2) / float32(c.viewportHeight)

	forward := c.Target.Sub(c.camera.Position).Normalize()
	right := forward.Cross(c.camera.Up).Normalize()
	up := right.Cross(forward)

	c.panOffset = c.panOffset.
		Add(right.Scale(-deltaX * perPixel * c.PanSpeed)).
		Add(up.Scale(deltaY * perPixel * c.PanSpeed))
}

// HandleEvent implements input.Listener.
func (c *OrbitControls) HandleEvent(e input.Event) {
	if c.disposed {
		return
	}
	switch e.Type {
	case input.EventMouseDown:
		switch e.Button {
		case input.ButtonLeft:
			c.rotating = true
		case input.ButtonRight, input.ButtonMiddle:
			c.panning = true
		}
	case input.EventMouseUp:
		c.rotating = false
		c.panning = false
	case input.EventMouseMove:
		if c.rotating {
			c.HandleDrag(float32(e.DeltaX), float32(e.DeltaY))
		} else if c.panning {
			c.HandlePan(float32(e.DeltaX), float32(e.DeltaY))
		}
	case input.EventMouseWheel:
		c.HandleZoom(e.WheelY)
	}
}

// Update applies accumulated input to the camera and reports whether
// there was any motion to apply. With damping enabled, motion decays
// over frames.
func (c *OrbitControls) Update() bool {
	if c.disposed {
		return false
	}

	active := c.deltaTheta != 0 || c.deltaPhi != 0 || c.scale != 1 || c.panOffset != (math.Vec3{})
	if !active {
		c.camera.LookAt(c.Target)
		return false
	}

	offset := c.camera.Position.Sub(c.Target)

	radius := offset.Length()
	theta := math32.Atan2(offset.X, offset.Z)
	phi := float32(0)
	if radius > 0 {
		phi = math32.Acos(clamp(offset.Y/radius, -1, 1))
	}

	if c.EnableDamping {
		theta += c.deltaTheta * c.DampingFactor
		phi += c.deltaPhi * c.DampingFactor
	} else {
		theta += c.deltaTheta
		phi += c.deltaPhi
	}
	phi = clamp(phi, c.MinPolar, c.MaxPolar)
	phi = clamp(phi, polarEpsilon, math32.Pi-polarEpsilon)

	radius = clamp(radius*c.scale, c.MinDistance, c.MaxDistance)

	if c.EnableDamping {
		c.Target = c.Target.Add(c.panOffset.Scale(c.DampingFactor))
	} else {
		c.Target = c.Target.Add(c.panOffset)
	}

	sinPhi := math32.Sin(phi)
	offset = math.Vec3{
		X: radius * sinPhi * math32.Sin(theta),
		Y: radius * math32.Cos(phi),
		Z: radius * sinPhi * math32.Cos(theta),
	}
	c.camera.Position = c.Target.Add(offset)
	c.camera.LookAt(c.Target)

	if c.EnableDamping {
		c.deltaTheta = settle(c.deltaTheta * (1 - c.DampingFactor))
		c.deltaPhi = settle(c.deltaPhi * (1 - c.DampingFactor))
		c.panOffset = c.panOffset.Scale(1 - c.DampingFactor)
		if c.panOffset.Length() < polarEpsilon {
			c.panOffset = math.Vec3{}
		}
	} else {
		c.deltaTheta = 0
		c.deltaPhi = 0
		c.panOffset = math.Vec3{}
	}
	c.scale = 1

	return true
}

// Dispose stops the controls from reacting to input or moving the camera.
func (c *OrbitControls) Dispose() {
	c.disposed = true
	c.rotating = false
	c.panning = false
	c.camera = nil
}

// Disposed reports whether Dispose has run.
func (c *OrbitControls) Disposed() bool {
	return c.disposed
}

// settle zeroes residual inertia so a damped camera eventually comes to rest.
func settle(v float32) float32 {
	if math32.Abs(v) < polarEpsilon {
		return 0
	}
	return v
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
