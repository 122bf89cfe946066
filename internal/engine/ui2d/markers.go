package ui2d

import (
	"strconv"

	"github.com/BesedinAlex/guides-fusion360-client/internal/overlay"
)

// badgeSize puts the badge's centre on the marker anchor.
const badgeSize = 2 * overlay.IndexBadgeOffset

// MarkerPart is the part of a marker under the pointer.
type MarkerPart int

const (
	PartNone MarkerPart = iota
	PartBadge
	PartDetails
	PartDelete
)

// MarkerHit is the result of a marker hit test.
type MarkerHit struct {
	Part         MarkerPart
	DisplayIndex int
	ID           int64
}

type markerBoxes struct {
	badge   Rect
	details Rect
	delete  Rect
}

func (f *Font) markerBoxes(m overlay.Marker, canDelete bool) markerBoxes {
	b := markerBoxes{
		badge: Rect{float32(m.IndexX), float32(m.IndexY), badgeSize, badgeSize},
	}
	if !m.Expanded {
		return b
	}
	nameW, _ := f.MeasureText(m.Name, TextScale)
	textW, textH := f.MeasureText(m.Text, TextScale)
	_, lineH := f.MeasureText("M", TextScale)
	w := max(nameW, textW) + 16
	if canDelete {
		w += 24
	}
	h := lineH + textH + 20
	b.details = Rect{b.badge.X + badgeSize + 4, b.badge.Y, w, h}
	if canDelete {
		b.delete = Rect{b.details.X + b.details.W - 22, b.details.Y + 4, 18, 18}
	}
	return b
}

// drawOrder lists marker indices back to front: the closest marker is
// drawn last so it sits on top.
func drawOrder(markers []overlay.Marker) []int {
	order := make([]int, 0, len(markers))
	var front []int
	for i, m := range markers {
		if m.Hidden {
			continue
		}
		if m.Rank == 1 {
			front = append(front, i)
			continue
		}
		order = append(order, i)
	}
	return append(order, front...)
}

// HitMarker returns the topmost marker part at (x, y).
func (f *Font) HitMarker(markers []overlay.Marker, x, y float32, canDelete bool) MarkerHit {
	order := drawOrder(markers)
	for i := len(order) - 1; i >= 0; i-- {
		m := markers[order[i]]
		b := f.markerBoxes(m, canDelete)
		hit := MarkerHit{DisplayIndex: m.DisplayIndex, ID: m.ID}
		switch {
		case canDelete && m.Expanded && b.delete.Contains(x, y):
			hit.Part = PartDelete
		case b.badge.Contains(x, y):
			hit.Part = PartBadge
		case m.Expanded && b.details.Contains(x, y):
			hit.Part = PartDetails
		default:
			continue
		}
		return hit
	}
	return MarkerHit{}
}

// Markers draws the overlay markers and returns what a press this frame
// landed on, if anything. Clicking a badge should toggle its details and
// clicking the delete box should delete the annotation.
func (c *Context) Markers(markers []overlay.Marker, canDelete bool) MarkerHit {
	font := c.renderer.font
	var hit MarkerHit
	if c.input.MouseLeftPressed {
		hit = font.HitMarker(markers, c.input.MouseX, c.input.MouseY, canDelete)
		if hit.Part != PartNone {
			c.input.MouseLeftPressed = false
		}
	}

	r := c.renderer
	for _, i := range drawOrder(markers) {
		m := markers[i]
		b := font.markerBoxes(m, canDelete)
		c.hits = append(c.hits, b.badge)

		bg, fg := ColorWhite, ColorText
		if m.Rank == 1 {
			bg, fg = ColorHighlight, ColorWhite
		}
		r.DrawPanel(b.badge.X, b.badge.Y, b.badge.W, b.badge.H, bg, ColorPanelBorder)
		label := strconv.Itoa(m.DisplayIndex)
		lw, lh := r.MeasureText(label, TextScale)
		r.DrawText(b.badge.X+(b.badge.W-lw)/2, b.badge.Y+(b.badge.H-lh)/2, label, TextScale, fg)

		if !m.Expanded {
			continue
		}
		c.hits = append(c.hits, b.details)
		d := b.details
		r.DrawPanel(d.X, d.Y, d.W, d.H, ColorPanelBg, ColorPanelBorder)
		r.DrawText(d.X+8, d.Y+8, m.Name, TextScale, ColorHighlight)
		_, nameH := r.MeasureText(m.Name, TextScale)
		r.DrawText(d.X+8, d.Y+12+nameH, m.Text, TextScale, ColorText)
		if canDelete {
			x := b.delete
			r.DrawRect(x.X, x.Y, x.W, x.H, ColorDanger)
			xw, xh := r.MeasureText("x", TextScale)
			r.DrawText(x.X+(x.W-xw)/2, x.Y+(x.H-xh)/2, "x", TextScale, ColorWhite)
		}
	}
	return hit
}
