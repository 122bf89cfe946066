package ui2d

import (
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	firstGlyph   = 32
	lastGlyph    = 126
	atlasCols    = 16
	fallbackRune = '?'
)

// Font is a fixed-width bitmap font baked into a texture atlas.
type Font struct {
	atlas   *image.RGBA
	glyphW  int
	glyphH  int
	texture uint32
}

// NewFont rasterizes the printable ASCII range of the 7x13 basic face.
// The atlas is white with coverage in alpha; Upload sends it to the GPU.
func NewFont() *Font {
	face := basicfont.Face7x13
	gw, gh := face.Advance, face.Height
	count := lastGlyph - firstGlyph + 1
	rows := (count + atlasCols - 1) / atlasCols

	mask := image.NewAlpha(image.Rect(0, 0, atlasCols*gw, rows*gh))
	d := &font.Drawer{Dst: mask, Src: image.Opaque, Face: face}
	for r := firstGlyph; r <= lastGlyph; r++ {
		i := r - firstGlyph
		col, row := i%atlasCols, i/atlasCols
		d.Dot = fixed.P(col*gw, row*gh+face.Ascent)
		d.DrawString(string(rune(r)))
	}

	atlas := image.NewRGBA(mask.Bounds())
	draw.DrawMask(atlas, atlas.Bounds(), image.White, image.Point{}, mask, image.Point{}, draw.Src)

	return &Font{atlas: atlas, glyphW: gw, glyphH: gh}
}

// Upload creates the atlas texture. It needs a current GL context.
func (f *Font) Upload() {
	if f.texture != 0 {
		return
	}
	b := f.atlas.Bounds()
	gl.GenTextures(1, &f.texture)
	gl.BindTexture(gl.TEXTURE_2D, f.texture)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(f.atlas.Pix))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

// TextureID returns the atlas texture, zero before Upload.
func (f *Font) TextureID() uint32 {
	return f.texture
}

// GlyphSize returns the size of one glyph cell in pixels.
func (f *Font) GlyphSize() (int, int) {
	return f.glyphW, f.glyphH
}

// GetGlyphUV returns the atlas coordinates of a rune. Runes outside the
// atlas render as '?'.
func (f *Font) GetGlyphUV(r rune) (u0, v0, u1, v1 float32) {
	if r < firstGlyph || r > lastGlyph {
		r = fallbackRune
	}
	i := int(r) - firstGlyph
	col, row := i%atlasCols, i/atlasCols
	b := f.atlas.Bounds()
	w, h := float32(b.Dx()), float32(b.Dy())

	u0 = float32(col*f.glyphW) / w
	v0 = float32(row*f.glyphH) / h
	u1 = float32((col+1)*f.glyphW) / w
	v1 = float32((row+1)*f.glyphH) / h
	return u0, v0, u1, v1
}

// MeasureText returns the width of the longest line and the total height.
func (f *Font) MeasureText(text string, scale float32) (float32, float32) {
	lines, longest, cur := 1, 0, 0
	for _, r := range text {
		if r == '\n' {
			lines++
			cur = 0
			continue
		}
		cur++
		if cur > longest {
			longest = cur
		}
	}
	return float32(longest*f.glyphW) * scale, float32(lines*f.glyphH) * scale
}

// Close releases the atlas texture.
func (f *Font) Close() {
	if f.texture != 0 {
		gl.DeleteTextures(1, &f.texture)
		f.texture = 0
	}
}
