// Package scene provides the scene graph the viewer renders: nodes with
// transforms, geometry, materials and lights, and GPU resource ownership.
package scene

import (
	"errors"
	"fmt"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/gpu"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// LightKind distinguishes light types.
type LightKind int

const (
	LightAmbient LightKind = iota
	LightDirectional
)

// Light is a light source attached to a node.
type Light struct {
	Kind      LightKind
	Color     math.Vec3
	Intensity float32
	Position  math.Vec3 // Directional lights shine from Position towards the origin
}

// Node is an element of the scene graph.
type Node struct {
	Name     string
	Local    math.Mat4
	Geometry *Geometry
	Material *Material
	Light    *Light
	Children []*Node

	parent *Node
}

// NewNode creates an empty node with an identity transform.
func NewNode(name string) *Node {
	return &Node{Name: name, Local: math.Identity()}
}

// NewMesh creates a node that renders geometry with a material.
func NewMesh(name string, geo *Geometry, mat *Material) *Node {
	n := NewNode(name)
	n.Geometry = geo
	n.Material = mat
	return n
}

// NewLight creates a node holding a light.
func NewLight(name string, light Light) *Node {
	n := NewNode(name)
	n.Light = &light
	return n
}

// Add attaches children, detaching them from any previous parent.
func (n *Node) Add(children ...*Node) {
	for _, c := range children {
		if c == nil || c == n {
			continue
		}
		if c.parent != nil {
			c.parent.Remove(c)
		}
		c.parent = n
		n.Children = append(n.Children, c)
	}
}

// Remove detaches a direct child.
func (n *Node) Remove(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// WorldMatrix returns the node's transform in world space.
func (n *Node) WorldMatrix() math.Mat4 {
	if n.parent == nil {
		return n.Local
	}
	return n.parent.WorldMatrix().Mul(n.Local)
}

// Traverse visits n and every descendant depth-first, parents first,
// passing each node's world matrix.
func (n *Node) Traverse(fn func(node *Node, world math.Mat4)) {
	n.traverse(n.parentWorld(), fn)
}

func (n *Node) parentWorld() math.Mat4 {
	if n.parent == nil {
		return math.Identity()
	}
	return n.parent.WorldMatrix()
}

func (n *Node) traverse(parentWorld math.Mat4, fn func(*Node, math.Mat4)) {
	world := parentWorld.Mul(n.Local)
	fn(n, world)
	for _, c := range n.Children {
		c.traverse(world, fn)
	}
}

// Graph is the root of a scene.
type Graph struct {
	Root       *Node
	ClearColor [4]float32
}

// NewGraph creates an empty graph with a white background.
func NewGraph() *Graph {
	return &Graph{
		Root:       NewNode("scene"),
		ClearColor: [4]float32{1, 1, 1, 1},
	}
}

// Add attaches nodes to the root.
func (g *Graph) Add(nodes ...*Node) {
	g.Root.Add(nodes...)
}

// Traverse visits every node in the graph.
func (g *Graph) Traverse(fn func(node *Node, world math.Mat4)) {
	g.Root.Traverse(fn)
}

// Lights returns every light with its world-space position.
func (g *Graph) Lights() []Light {
	var lights []Light
	g.Traverse(func(n *Node, world math.Mat4) {
		if n.Light == nil {
			return
		}
		l := *n.Light
		l.Position = world.TransformVec3(l.Position)
		lights = append(lights, l)
	})
	return lights
}

// BoundingBox returns the world-space bounds of all geometry.
func (g *Graph) BoundingBox() math.Box3 {
	box := math.EmptyBox3()
	g.Traverse(func(n *Node, world math.Mat4) {
		if n.Geometry == nil {
			return
		}
		for i := 0; i < n.Geometry.VertexCount(); i++ {
			box = box.ExpandByPoint(world.TransformVec3(n.Geometry.Vertex(i)))
		}
	})
	return box
}

// Upload creates GPU resources for every geometry and texture that has none.
func (g *Graph) Upload(dev gpu.Device) error {
	var errs []error
	g.Traverse(func(n *Node, _ math.Mat4) {
		if n.Geometry != nil {
			if err := n.Geometry.Upload(dev); err != nil {
				errs = append(errs, fmt.Errorf("node %q geometry: %w", n.Name, err))
			}
		}
		if n.Material != nil && n.Material.Map != nil {
			if err := n.Material.Map.Upload(dev); err != nil {
				errs = append(errs, fmt.Errorf("node %q texture: %w", n.Name, err))
			}
		}
	})
	return errors.Join(errs...)
}

// Dispose releases the GPU resources of every node in the graph, children
// first, and detaches them. Shared geometries and materials are released once.
func (g *Graph) Dispose(dev gpu.Device) {
	disposeNode(g.Root, dev)
	g.Root.Children = nil
}

func disposeNode(n *Node, dev gpu.Device) {
	for _, c := range n.Children {
		disposeNode(c, dev)
		c.parent = nil
	}
	if n.Geometry != nil {
		n.Geometry.Dispose(dev)
	}
	if n.Material != nil {
		n.Material.Dispose(dev)
	}
}
