// Package gpu defines the GPU resource interface the scene graph allocates
// through, plus an in-memory device that tracks live handles.
package gpu

import (
	"fmt"
	"sync"
)

// Handle identifies a GPU object. Zero is never a valid handle.
type Handle uint32

// Kind is the class of a GPU object.
type Kind int

const (
	KindBuffer Kind = iota
	KindTexture
	KindVertexArray
	KindProgram
)

func (k Kind) String() string {
	switch k {
	case KindBuffer:
		return "buffer"
	case KindTexture:
		return "texture"
	case KindVertexArray:
		return "vertex array"
	case KindProgram:
		return "program"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Mesh is the set of handles backing one uploaded geometry.
type Mesh struct {
	VAO        Handle
	Vertices   Handle
	Normals    Handle
	UVs        Handle
	Indices    Handle
	IndexCount int32
}

// Device allocates and frees GPU objects. Implementations are not safe
// for concurrent use; all calls happen on the thread that owns the context.
type Device interface {
	// UploadMesh creates buffers for positions, normals and texture
	// coordinates (both may be nil) and indices.
	UploadMesh(positions, normals, uvs []float32, indices []uint32) (Mesh, error)
	// UploadTexture creates an RGBA8 texture.
	UploadTexture(width, height int, rgba []byte) (Handle, error)
	// ReleaseMesh frees every handle in m.
	ReleaseMesh(m Mesh)
	// ReleaseTexture frees a texture.
	ReleaseTexture(h Handle)
}

// MemoryDevice is a Device that only records allocations. It backs the
// headless viewer and lets tests assert that nothing leaks.
type MemoryDevice struct {
	mu       sync.Mutex
	next     Handle
	live     map[Handle]Kind
	released map[Handle]int
	doubles  int
}

// NewMemoryDevice creates an empty MemoryDevice.
func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{
		live:     make(map[Handle]Kind),
		released: make(map[Handle]int),
	}
}

func (d *MemoryDevice) alloc(k Kind) Handle {
	d.next++
	d.live[d.next] = k
	return d.next
}

func (d *MemoryDevice) free(h Handle) {
	if h == 0 {
		return
	}
	if _, ok := d.live[h]; !ok {
		d.doubles++
		return
	}
	delete(d.live, h)
	d.released[h]++
}

// UploadMesh implements Device.
func (d *MemoryDevice) UploadMesh(positions, normals, uvs []float32, indices []uint32) (Mesh, error) {
	if len(positions)%3 != 0 {
		return Mesh{}, fmt.Errorf("positions length %d is not a multiple of 3", len(positions))
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	m := Mesh{
		VAO:        d.alloc(KindVertexArray),
		Vertices:   d.alloc(KindBuffer),
		IndexCount: int32(len(indices)),
	}
	if len(normals) > 0 {
		m.Normals = d.alloc(KindBuffer)
	}
	if len(uvs) > 0 {
		m.UVs = d.alloc(KindBuffer)
	}
	if len(indices) > 0 {
		m.Indices = d.alloc(KindBuffer)
	}
	return m, nil
}

// UploadTexture implements Device.
func (d *MemoryDevice) UploadTexture(width, height int, rgba []byte) (Handle, error) {
	if width <= 0 || height <= 0 || len(rgba) != width*height*4 {
		return 0, fmt.Errorf("invalid texture %dx%d with %d bytes", width, height, len(rgba))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alloc(KindTexture), nil
}

// ReleaseMesh implements Device.
func (d *MemoryDevice) ReleaseMesh(m Mesh) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.free(m.VAO)
	d.free(m.Vertices)
	d.free(m.Normals)
	d.free(m.UVs)
	d.free(m.Indices)
}

// ReleaseTexture implements Device.
func (d *MemoryDevice) ReleaseTexture(h Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.free(h)
}

// Live returns the number of allocated, not yet released handles.
func (d *MemoryDevice) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// LiveOf returns the number of live handles of one kind.
func (d *MemoryDevice) LiveOf(k Kind) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, kind := range d.live {
		if kind == k {
			n++
		}
	}
	return n
}

// DoubleFrees returns how many releases targeted a handle that was not live.
func (d *MemoryDevice) DoubleFrees() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doubles
}

// Allocated returns the total number of handles ever created.
func (d *MemoryDevice) Allocated() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int(d.next)
}
