// Package picking provides ray casting from screen coordinates into the
// scene graph.
package picking

import (
	gomath "math"

	"github.com/chewxy/math32"

	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

const epsilon = 1e-7

// Ray represents a ray in 3D space with origin and direction.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3 // Normalized direction
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) math.Vec3 {
	return r.Origin.Add(r.Direction.Scale(t))
}

// PointerToNDC converts pixel coordinates within a viewport to normalized
// device coordinates, with +Y up.
func PointerToNDC(px, py float32, width, height int) math.Vec2 {
	return math.Vec2{
		X: (px/float32(width))*2 - 1,
		Y: -(py/float32(height))*2 + 1,
	}
}

// Camera is what a ray needs from a camera.
type Camera interface {
	ViewProjection() math.Mat4
	WorldPosition() math.Vec3
}

// FromCamera builds a ray starting at the camera and passing through the
// given NDC point.
func FromCamera(ndc math.Vec2, cam Camera) Ray {
	inv := cam.ViewProjection().Inverse()
	through := inv.TransformVec3(math.Vec3{X: ndc.X, Y: ndc.Y, Z: 0.5})
	origin := cam.WorldPosition()
	return Ray{Origin: origin, Direction: through.Sub(origin).Normalize()}
}

// IntersectBox tests the ray against an axis-aligned box.
// Returns the distance to intersection and whether it hit. If the ray
// starts inside the box, the exit distance is returned.
func (r Ray) IntersectBox(box math.Box3) (t float32, hit bool) {
	if box.IsEmpty() {
		return 0, false
	}
	tmin := float32(-gomath.MaxFloat32)
	tmax := float32(gomath.MaxFloat32)

	origin := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float32{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float32{box.Max.X, box.Max.Y, box.Max.Z}

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - origin[axis]) / dir[axis]
		t2 := (hi[axis] - origin[axis]) / dir[axis]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
	}

	if tmax < tmin || tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return tmax, true
	}
	return tmin, true
}

// IntersectTriangle tests the ray against triangle abc (Möller–Trumbore).
// With cullBack set, triangles facing away from the ray are ignored.
func (r Ray) IntersectTriangle(a, b, c math.Vec3, cullBack bool) (t float32, hit bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	p := r.Direction.Cross(edge2)
	det := edge1.Dot(p)

	if cullBack {
		if det < epsilon {
			return 0, false
		}
	} else if math32.Abs(det) < epsilon {
		return 0, false
	}

	inv := 1 / det
	s := r.Origin.Sub(a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := r.Direction.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t = edge2.Dot(q) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// TransformBox returns the world-space bounds of a local box.
func TransformBox(box math.Box3, m math.Mat4) math.Box3 {
	if box.IsEmpty() {
		return box
	}
	out := math.EmptyBox3()
	for i := 0; i < 8; i++ {
		corner := box.Min
		if i&1 != 0 {
			corner.X = box.Max.X
		}
		if i&2 != 0 {
			corner.Y = box.Max.Y
		}
		if i&4 != 0 {
			corner.Z = box.Max.Z
		}
		out = out.ExpandByPoint(m.TransformVec3(corner))
	}
	return out
}
