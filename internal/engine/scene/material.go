package scene

import (
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/gpu"
)

// Texture is an RGBA8 image and its GPU handle.
type Texture struct {
	Width, Height int
	Pixels        []byte

	handle   gpu.Handle
	disposed bool
}

// Upload creates the GPU texture if needed.
func (t *Texture) Upload(dev gpu.Device) error {
	if t.handle != 0 || t.disposed {
		return nil
	}
	h, err := dev.UploadTexture(t.Width, t.Height, t.Pixels)
	if err != nil {
		return err
	}
	t.handle = h
	return nil
}

// Handle returns the GPU handle, zero if not uploaded or disposed.
func (t *Texture) Handle() gpu.Handle {
	return t.handle
}

// Dispose releases the GPU texture once.
func (t *Texture) Dispose(dev gpu.Device) {
	if t.disposed {
		return
	}
	t.disposed = true
	if t.handle != 0 {
		dev.ReleaseTexture(t.handle)
		t.handle = 0
	}
}

// Disposed reports whether Dispose has run.
func (t *Texture) Disposed() bool {
	return t.disposed
}

// Material describes how a mesh is shaded.
type Material struct {
	Name        string
	Color       [4]float32 // Base color factor (RGBA)
	Map         *Texture   // Base color texture, optional
	DoubleSided bool

	disposed bool
}

// DefaultMaterial returns an opaque white material.
func DefaultMaterial() *Material {
	return &Material{Name: "default", Color: [4]float32{1, 1, 1, 1}}
}

// Dispose releases the material's texture, then the material itself.
func (m *Material) Dispose(dev gpu.Device) {
	if m.disposed {
		return
	}
	if m.Map != nil {
		m.Map.Dispose(dev)
	}
	m.disposed = true
}

// Disposed reports whether Dispose has run.
func (m *Material) Disposed() bool {
	return m.disposed
}
