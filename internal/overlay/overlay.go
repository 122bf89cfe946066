// Package overlay projects annotation positions to screen pixels and lays
// out the marker data the host draws on top of the 3D view.
package overlay

import (
	"github.com/chewxy/math32"

	"github.com/BesedinAlex/guides-fusion360-client/internal/annotation"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// IndexBadgeOffset is how far the number badge sits up and left of the
// marker anchor, in pixels.
const IndexBadgeOffset = 15

// Camera is what projection needs from a camera.
type Camera interface {
	ViewProjection() math.Mat4
	WorldPosition() math.Vec3
}

// Project maps a world position to pixel coordinates in a width x height
// viewport, origin top-left. Results are not clamped to the viewport.
func Project(pos math.Vec3, cam Camera, width, height int) (x, y int) {
	ndc, _ := toNDC(pos, cam.ViewProjection())
	return toPixels(ndc, width, height)
}

func toNDC(pos math.Vec3, viewProj math.Mat4) (ndc math.Vec3, behind bool) {
	clip := viewProj.MulVec4(math.Vec4{pos.X, pos.Y, pos.Z, 1})
	w := clip[3]
	if w == 0 {
		return math.Vec3{X: clip[0], Y: clip[1], Z: clip[2]}, true
	}
	return math.Vec3{X: clip[0] / w, Y: clip[1] / w, Z: clip[2] / w}, w < 0
}

// maxNDC bounds NDC before the pixel conversion. Points near the camera
// plane divide by a tiny w and would overflow int.
const maxNDC = 1e4

func toPixels(ndc math.Vec3, width, height int) (x, y int) {
	nx := clampNDC(ndc.X)
	ny := clampNDC(ndc.Y)
	x = int(math32.Round((nx + 1) * float32(width) / 2))
	y = int(math32.Round((-ny + 1) * float32(height) / 2))
	return x, y
}

func clampNDC(v float32) float32 {
	if math32.IsNaN(v) {
		return 0
	}
	return math32.Max(-maxNDC, math32.Min(maxNDC, v))
}

// Marker is the screen-space state of one annotation for one frame.
type Marker struct {
	ID           int64
	DisplayIndex int
	Name         string
	Text         string

	X, Y           int // Anchor
	IndexX, IndexY int // Number badge

	// Rank is 1 for the annotation closest to the camera, 0 otherwise.
	Rank int
	// Expanded is the user-toggled details flag.
	Expanded bool
	// OffScreen is set when the anchor falls outside the viewport and
	// Behind when the point is behind the camera.
	OffScreen bool
	Behind    bool
	// Hidden tells the host not to draw the marker at all.
	Hidden bool
}

// Options tune Layout.
type Options struct {
	// HideOffscreen hides markers that are off-screen or behind the camera.
	HideOffscreen bool
	// Expanded reports the details flag for a display index. Nil means
	// every marker is collapsed.
	Expanded func(displayIndex int) bool
}

// Layout projects every annotation and ranks them by distance to the camera.
func Layout(list []annotation.Annotation, cam Camera, width, height int, opts Options) []Marker {
	if len(list) == 0 {
		return nil
	}
	viewProj := cam.ViewProjection()
	closest := annotation.ClosestToCamera(cam.WorldPosition(), list)

	markers := make([]Marker, len(list))
	for i, a := range list {
		ndc, behind := toNDC(a.Position, viewProj)
		x, y := toPixels(ndc, width, height)
		m := Marker{
			ID:           a.ID,
			DisplayIndex: a.DisplayIndex,
			Name:         a.Name,
			Text:         a.Text,
			X:            x,
			Y:            y,
			IndexX:       x - IndexBadgeOffset,
			IndexY:       y - IndexBadgeOffset,
			Behind:       behind,
			OffScreen:    x < 0 || x > width || y < 0 || y > height,
		}
		if a.DisplayIndex == closest {
			m.Rank = 1
		}
		if opts.Expanded != nil {
			m.Expanded = opts.Expanded(a.DisplayIndex)
		}
		m.Hidden = opts.HideOffscreen && (m.OffScreen || m.Behind)
		markers[i] = m
	}
	return markers
}
