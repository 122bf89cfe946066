package picking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/camera"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/scene"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

func quadGraph(doubleSided bool) (*scene.Graph, *scene.Node) {
	g := scene.NewGraph()
	mat := scene.DefaultMaterial()
	mat.DoubleSided = doubleSided
	node := scene.NewMesh("quad", scene.NewGeometry(
		[]float32{-1, -1, 0, 3, -1, 0, 3, 1, 0, -1, 1, 0},
		nil,
		[]uint32{0, 1, 2, 0, 2, 3},
	), mat)
	g.Add(node)
	return g, node
}

func cameraAt(pos math.Vec3) *camera.Perspective {
	c := camera.NewPerspective(55, 800.0/600.0, 0.1, 1000)
	c.SetPosition(pos)
	c.LookAt(math.Vec3{})
	return c
}

func TestPointerToNDC(t *testing.T) {
	assert.Equal(t, math.Vec2{X: -1, Y: 1}, PointerToNDC(0, 0, 800, 600))
	assert.Equal(t, math.Vec2{X: 0, Y: 0}, PointerToNDC(400, 300, 800, 600))
	assert.Equal(t, math.Vec2{X: 1, Y: -1}, PointerToNDC(800, 600, 800, 600))
}

func TestFromCameraThroughCenter(t *testing.T) {
	cam := cameraAt(math.V3(0, 0, 10))
	r := FromCamera(math.Vec2{}, cam)

	assert.Equal(t, math.V3(0, 0, 10), r.Origin)
	assert.InDelta(t, 0, r.Direction.X, 1e-5)
	assert.InDelta(t, 0, r.Direction.Y, 1e-5)
	assert.InDelta(t, -1, r.Direction.Z, 1e-5)
}

func TestPickHitsNearestSurface(t *testing.T) {
	g, node := quadGraph(false)
	cam := cameraAt(math.V3(0, 0, 10))

	hit, ok := Pick(400, 300, 800, 600, cam, g)
	require.True(t, ok)
	assert.Same(t, node, hit.Node)
	assert.InDelta(t, 10, hit.Distance, 1e-3)
	assert.InDelta(t, 0, hit.Point.X, 1e-4)
	assert.InDelta(t, 0, hit.Point.Y, 1e-4)
	assert.InDelta(t, 0, hit.Point.Z, 1e-4)
}

func TestPickMissReturnsFalse(t *testing.T) {
	g, _ := quadGraph(false)
	cam := cameraAt(math.V3(0, 0, 10))

	_, ok := Pick(5, 5, 800, 600, cam, g)
	assert.False(t, ok)
}

func TestPickEmptyViewport(t *testing.T) {
	g, _ := quadGraph(false)
	_, ok := Pick(0, 0, 0, 0, cameraAt(math.V3(0, 0, 10)), g)
	assert.False(t, ok)
}

func TestPickRespectsBackfaces(t *testing.T) {
	cam := cameraAt(math.V3(0, 0, -10))

	single, _ := quadGraph(false)
	_, ok := Pick(400, 300, 800, 600, cam, single)
	assert.False(t, ok, "back face of a single-sided material is not pickable")

	double, _ := quadGraph(true)
	_, ok = Pick(400, 300, 800, 600, cam, double)
	assert.True(t, ok)
}

func TestPickRecursiveWithTransforms(t *testing.T) {
	g := scene.NewGraph()
	parent := scene.NewNode("parent")
	parent.Local = math.Translate(0, 0, 3)
	near := scene.NewMesh("near", scene.NewGeometry(
		[]float32{-1, -1, 0, 1, -1, 0, 0, 1, 0}, nil, nil), scene.DefaultMaterial())
	far := scene.NewMesh("far", scene.NewGeometry(
		[]float32{-5, -5, 0, 5, -5, 0, 0, 5, 0}, nil, nil), scene.DefaultMaterial())
	parent.Add(near)
	g.Add(far, parent)

	cam := cameraAt(math.V3(0, 0, 10))
	rc := NewRaycaster()
	rc.SetFromCamera(math.Vec2{}, cam)
	hits := rc.IntersectGraph(g)

	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].Node.Name)
	assert.InDelta(t, 7, hits[0].Distance, 1e-3)
	assert.Equal(t, "far", hits[1].Node.Name)
	assert.InDelta(t, 0, hits[1].Point.Z, 1e-4)
}

func TestPickSkipsDisposedGeometry(t *testing.T) {
	g, node := quadGraph(true)
	node.Geometry.Dispose(nil)
	_, ok := Pick(400, 300, 800, 600, cameraAt(math.V3(0, 0, 10)), g)
	assert.False(t, ok)
}

func TestIntersectBox(t *testing.T) {
	box := math.Box3{Min: math.V3(-1, -1, -1), Max: math.V3(1, 1, 1)}

	r := Ray{Origin: math.V3(0, 0, 5), Direction: math.V3(0, 0, -1)}
	tHit, ok := r.IntersectBox(box)
	require.True(t, ok)
	assert.Equal(t, float32(4), tHit)

	inside := Ray{Origin: math.Vec3{}, Direction: math.V3(1, 0, 0)}
	tHit, ok = inside.IntersectBox(box)
	require.True(t, ok)
	assert.Equal(t, float32(1), tHit, "starting inside returns the exit distance")

	away := Ray{Origin: math.V3(0, 0, 5), Direction: math.V3(0, 0, 1)}
	_, ok = away.IntersectBox(box)
	assert.False(t, ok)

	_, ok = r.IntersectBox(math.EmptyBox3())
	assert.False(t, ok)
}

func TestTransformBox(t *testing.T) {
	box := math.Box3{Min: math.V3(0, 0, 0), Max: math.V3(1, 2, 3)}
	got := TransformBox(box, math.Translate(1, 1, 1).Mul(math.Scale(-1, 1, 1)))
	assert.Equal(t, math.V3(0, 1, 1), got.Min)
	assert.Equal(t, math.V3(1, 3, 4), got.Max)
}
