package ui2d

// Color represents an RGBA color with float components (0.0 to 1.0).
type Color struct {
	R, G, B, A float32
}

// Palette used by the viewer overlay. The scene is drawn on white, so
// panels are light and text is dark.
var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}

	ColorPanelBg      = Color{0.97, 0.97, 0.98, 0.95}
	ColorPanelBorder  = Color{0.75, 0.75, 0.8, 1}
	ColorButtonNormal = Color{0.9, 0.9, 0.93, 1}
	ColorButtonHover  = Color{0.82, 0.85, 0.92, 1}
	ColorButtonActive = Color{0.2, 0.45, 0.8, 1}
	ColorInputBg      = Color{1, 1, 1, 1}
	ColorInputBorder  = Color{0.7, 0.7, 0.75, 1}
	ColorText         = Color{0.1, 0.1, 0.12, 1}
	ColorTextDim      = Color{0.45, 0.45, 0.5, 1}
	ColorHighlight    = Color{0.2, 0.45, 0.8, 1}
	ColorDanger       = Color{0.8, 0.2, 0.2, 1}
)

// RGBA creates a color from 8-bit RGBA values (0-255).
func RGBA(r, g, b, a uint8) Color {
	return Color{
		R: float32(r) / 255.0,
		G: float32(g) / 255.0,
		B: float32(b) / 255.0,
		A: float32(a) / 255.0,
	}
}

// WithAlpha returns a copy of the color with a different alpha value.
func (c Color) WithAlpha(a float32) Color {
	return Color{c.R, c.G, c.B, a}
}

// Lighten returns a lighter version of the color.
func (c Color) Lighten(factor float32) Color {
	return Color{
		R: c.R + (1-c.R)*factor,
		G: c.G + (1-c.G)*factor,
		B: c.B + (1-c.B)*factor,
		A: c.A,
	}
}
