package scene

import (
	"fmt"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/gpu"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// Geometry holds CPU-side vertex data and, once uploaded, its GPU mesh.
// A Geometry may be shared by several nodes; it is disposed once.
type Geometry struct {
	Positions []float32 // xyz triplets
	Normals   []float32 // xyz triplets, optional
	UVs       []float32 // uv pairs, optional
	Indices   []uint32  // optional; nil means sequential triangles

	mesh     gpu.Mesh
	uploaded bool
	disposed bool
}

// NewGeometry creates a geometry from flat position, normal and index slices.
func NewGeometry(positions, normals []float32, indices []uint32) *Geometry {
	return &Geometry{Positions: positions, Normals: normals, Indices: indices}
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Positions) / 3
}

// Vertex returns vertex i.
func (g *Geometry) Vertex(i int) math.Vec3 {
	return math.Vec3{X: g.Positions[i*3], Y: g.Positions[i*3+1], Z: g.Positions[i*3+2]}
}

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int {
	if g.Indices != nil {
		return len(g.Indices) / 3
	}
	return g.VertexCount() / 3
}

// Triangle returns the vertices of triangle i in local space.
func (g *Geometry) Triangle(i int) (a, b, c math.Vec3) {
	if g.Indices != nil {
		return g.Vertex(int(g.Indices[i*3])), g.Vertex(int(g.Indices[i*3+1])), g.Vertex(int(g.Indices[i*3+2]))
	}
	return g.Vertex(i * 3), g.Vertex(i*3 + 1), g.Vertex(i*3 + 2)
}

// BoundingBox returns the local-space bounds of the geometry.
func (g *Geometry) BoundingBox() math.Box3 {
	box := math.EmptyBox3()
	for i := 0; i < g.VertexCount(); i++ {
		box = box.ExpandByPoint(g.Vertex(i))
	}
	return box
}

// Upload creates the GPU mesh if it does not exist yet.
func (g *Geometry) Upload(dev gpu.Device) error {
	if g.uploaded || g.disposed {
		return nil
	}
	if g.Indices != nil {
		for _, idx := range g.Indices {
			if int(idx) >= g.VertexCount() {
				return fmt.Errorf("index %d out of range for %d vertices", idx, g.VertexCount())
			}
		}
	}
	mesh, err := dev.UploadMesh(g.Positions, g.Normals, g.UVs, g.Indices)
	if err != nil {
		return err
	}
	g.mesh = mesh
	g.uploaded = true
	return nil
}

// Mesh returns the uploaded GPU mesh.
func (g *Geometry) Mesh() (gpu.Mesh, bool) {
	return g.mesh, g.uploaded && !g.disposed
}

// Dispose releases the GPU mesh. Calling it again is a no-op.
func (g *Geometry) Dispose(dev gpu.Device) {
	if g.disposed {
		return
	}
	g.disposed = true
	if g.uploaded {
		dev.ReleaseMesh(g.mesh)
		g.mesh = gpu.Mesh{}
	}
}

// Disposed reports whether Dispose has run.
func (g *Geometry) Disposed() bool {
	return g.disposed
}
