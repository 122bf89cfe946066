package model

import (
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/scene"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// computeNormals averages the face normals around each vertex. Degenerate
// triangles contribute nothing.
func computeNormals(g *scene.Geometry) []float32 {
	acc := make([]math.Vec3, g.VertexCount())
	for i := 0; i < g.TriangleCount(); i++ {
		ia, ib, ic := triangleIndices(g, i)
		if ia >= len(acc) || ib >= len(acc) || ic >= len(acc) {
			continue
		}
		a, b, c := g.Vertex(ia), g.Vertex(ib), g.Vertex(ic)
		// Area-weighted: the cross product is left unnormalized.
		n := b.Sub(a).Cross(c.Sub(a))
		acc[ia] = acc[ia].Add(n)
		acc[ib] = acc[ib].Add(n)
		acc[ic] = acc[ic].Add(n)
	}
	out := make([]float32, 0, len(acc)*3)
	for _, n := range acc {
		n = n.Normalize()
		out = append(out, n.X, n.Y, n.Z)
	}
	return out
}

func triangleIndices(g *scene.Geometry, i int) (a, b, c int) {
	if g.Indices != nil {
		return int(g.Indices[i*3]), int(g.Indices[i*3+1]), int(g.Indices[i*3+2])
	}
	return i * 3, i*3 + 1, i*3 + 2
}
