package picking

import (
	"sort"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/scene"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// Intersection is a ray hit on a mesh node.
type Intersection struct {
	Distance float32
	Point    math.Vec3
	Node     *scene.Node
	Face     int
}

// Raycaster casts rays from a camera into a scene graph.
type Raycaster struct {
	Ray  Ray
	Near float32
	Far  float32
}

// NewRaycaster creates a raycaster accepting hits at any distance.
func NewRaycaster() *Raycaster {
	return &Raycaster{Near: 0, Far: float32(1e30)}
}

// SetFromCamera aims the ray from the camera through an NDC point.
func (rc *Raycaster) SetFromCamera(ndc math.Vec2, cam Camera) {
	rc.Ray = FromCamera(ndc, cam)
}

// IntersectNode tests node (and, when recursive, its descendants) and
// returns hits sorted nearest first.
func (rc *Raycaster) IntersectNode(node *scene.Node, recursive bool) []Intersection {
	var hits []Intersection
	if !recursive {
		hits = rc.intersectMesh(node, node.WorldMatrix(), hits)
	} else {
		node.Traverse(func(n *scene.Node, world math.Mat4) {
			hits = rc.intersectMesh(n, world, hits)
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	return hits
}

// IntersectGraph tests every node of the graph.
func (rc *Raycaster) IntersectGraph(g *scene.Graph) []Intersection {
	return rc.IntersectNode(g.Root, true)
}

func (rc *Raycaster) intersectMesh(n *scene.Node, world math.Mat4, hits []Intersection) []Intersection {
	geo := n.Geometry
	if geo == nil || geo.Disposed() || geo.TriangleCount() == 0 {
		return hits
	}
	if _, ok := rc.Ray.IntersectBox(TransformBox(geo.BoundingBox(), world)); !ok {
		return hits
	}

	cullBack := n.Material != nil && !n.Material.DoubleSided
	best := Intersection{Distance: -1}
	for i := 0; i < geo.TriangleCount(); i++ {
		a, b, c := geo.Triangle(i)
		t, ok := rc.Ray.IntersectTriangle(world.TransformVec3(a), world.TransformVec3(b), world.TransformVec3(c), cullBack)
		if !ok || t < rc.Near || t > rc.Far {
			continue
		}
		if best.Distance < 0 || t < best.Distance {
			best = Intersection{Distance: t, Point: rc.Ray.At(t), Node: n, Face: i}
		}
	}
	if best.Distance >= 0 {
		hits = append(hits, best)
	}
	return hits
}

// Pick converts a pointer position to a ray from cam and returns the
// nearest surface hit in the graph. A miss is reported with ok=false.
func Pick(px, py float32, width, height int, cam Camera, g *scene.Graph) (hit Intersection, ok bool) {
	if width <= 0 || height <= 0 || g == nil {
		return Intersection{}, false
	}
	rc := NewRaycaster()
	rc.SetFromCamera(PointerToNDC(px, py, width, height), cam)
	hits := rc.IntersectGraph(g)
	if len(hits) == 0 {
		return Intersection{}, false
	}
	return hits[0], true
}
