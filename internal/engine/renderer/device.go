package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/gpu"
)

// Vertex attribute locations shared with the mesh shader.
const (
	attribPosition = 0
	attribNormal   = 1
	attribUV       = 2
)

// Device is a gpu.Device backed by the current OpenGL context.
// It must only be used on the thread that owns the context.
type Device struct{}

var _ gpu.Device = (*Device)(nil)

// NewDevice returns a Device. The GL context must already be current and
// gl.Init must have run.
func NewDevice() *Device {
	return &Device{}
}

// UploadMesh implements gpu.Device.
func (d *Device) UploadMesh(positions, normals, uvs []float32, indices []uint32) (gpu.Mesh, error) {
	if len(positions) == 0 || len(positions)%3 != 0 {
		return gpu.Mesh{}, fmt.Errorf("positions length %d is not a positive multiple of 3", len(positions))
	}

	var vao uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)
	defer gl.BindVertexArray(0)

	m := gpu.Mesh{
		VAO:        gpu.Handle(vao),
		Vertices:   arrayBuffer(attribPosition, 3, positions),
		IndexCount: int32(len(indices)),
	}
	if len(normals) > 0 {
		m.Normals = arrayBuffer(attribNormal, 3, normals)
	} else {
		// Constant normal so unlit geometry still gets ambient light
		gl.VertexAttrib3f(attribNormal, 0, 0, 1)
	}
	if len(uvs) > 0 {
		m.UVs = arrayBuffer(attribUV, 2, uvs)
	}
	if len(indices) > 0 {
		var ebo uint32
		gl.GenBuffers(1, &ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
		m.Indices = gpu.Handle(ebo)
	}

	if code := gl.GetError(); code != gl.NO_ERROR {
		d.ReleaseMesh(m)
		return gpu.Mesh{}, fmt.Errorf("upload mesh: GL error 0x%x", code)
	}
	return m, nil
}

func arrayBuffer(location uint32, size int32, data []float32) gpu.Handle {
	var vbo uint32
	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	gl.VertexAttribPointer(location, size, gl.FLOAT, false, size*4, nil)
	gl.EnableVertexAttribArray(location)
	return gpu.Handle(vbo)
}

// UploadTexture implements gpu.Device.
func (d *Device) UploadTexture(width, height int, rgba []byte) (gpu.Handle, error) {
	if width <= 0 || height <= 0 || len(rgba) != width*height*4 {
		return 0, fmt.Errorf("invalid texture %dx%d with %d bytes", width, height, len(rgba))
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		gl.DeleteTextures(1, &tex)
		return 0, fmt.Errorf("upload texture: GL error 0x%x", code)
	}
	return gpu.Handle(tex), nil
}

// ReleaseMesh implements gpu.Device.
func (d *Device) ReleaseMesh(m gpu.Mesh) {
	for _, h := range []gpu.Handle{m.Vertices, m.Normals, m.UVs, m.Indices} {
		if h != 0 {
			id := uint32(h)
			gl.DeleteBuffers(1, &id)
		}
	}
	if m.VAO != 0 {
		id := uint32(m.VAO)
		gl.DeleteVertexArrays(1, &id)
	}
}

// ReleaseTexture implements gpu.Device.
func (d *Device) ReleaseTexture(h gpu.Handle) {
	if h == 0 {
		return
	}
	id := uint32(h)
	gl.DeleteTextures(1, &id)
}
