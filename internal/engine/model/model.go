// Package model decodes glTF 2.0 binaries (GLB) into scene graph nodes.
package model

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/scene"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// ErrEmptyModel is returned for a document without renderable nodes.
var ErrEmptyModel = errors.New("model has no nodes")

// ErrDracoCompressed is returned for meshes that only exist in
// KHR_draco_mesh_compression form. Draco decoding is not supported.
var ErrDracoCompressed = errors.New("draco-compressed meshes are not supported")

const extDraco = "KHR_draco_mesh_compression"

// Options controls decoding.
type Options struct {
	// ComputeNormals generates smooth vertex normals for primitives that
	// have none.
	ComputeNormals bool
	// SkipTextures ignores embedded images.
	SkipTextures bool
}

// DefaultOptions returns the options the viewer uses.
func DefaultOptions() Options {
	return Options{ComputeNormals: true}
}

// Decode parses a GLB (or embedded glTF JSON) payload and returns the root
// node of its default scene. Nothing is uploaded to the GPU.
func Decode(data []byte, opts Options) (*scene.Node, error) {
	if len(data) == 0 {
		return nil, errors.New("decode model: empty payload")
	}
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	for _, ext := range doc.ExtensionsRequired {
		if ext == extDraco {
			return nil, fmt.Errorf("decode model: %w", ErrDracoCompressed)
		}
	}
	b := &builder{
		doc:       doc,
		opts:      opts,
		materials: make(map[int]*scene.Material),
		textures:  make(map[int]*scene.Texture),
		meshes:    make(map[int][]primitive),
	}
	return b.build()
}

type primitive struct {
	geometry *scene.Geometry
	material *scene.Material
}

type builder struct {
	doc  *gltf.Document
	opts Options

	// Shared glTF objects map to shared scene resources so disposal
	// releases each of them exactly once.
	materials map[int]*scene.Material
	textures  map[int]*scene.Texture
	meshes    map[int][]primitive

	fallback *scene.Material
}

func (b *builder) build() (*scene.Node, error) {
	roots, err := b.rootNodes()
	if err != nil {
		return nil, err
	}
	root := scene.NewNode("model")
	visited := make(map[int]bool)
	for _, idx := range roots {
		n, err := b.node(idx, visited)
		if err != nil {
			return nil, err
		}
		root.Add(n)
	}
	return root, nil
}

func (b *builder) rootNodes() ([]int, error) {
	if len(b.doc.Nodes) == 0 {
		return nil, ErrEmptyModel
	}
	sceneIdx := 0
	if b.doc.Scene != nil {
		sceneIdx = *b.doc.Scene
	}
	if sceneIdx < len(b.doc.Scenes) && len(b.doc.Scenes[sceneIdx].Nodes) > 0 {
		return b.doc.Scenes[sceneIdx].Nodes, nil
	}

	// No scene: every node that is nobody's child is a root.
	child := make(map[int]bool)
	for _, n := range b.doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []int
	for i := range b.doc.Nodes {
		if !child[i] {
			roots = append(roots, i)
		}
	}
	return roots, nil
}

func (b *builder) node(idx int, visited map[int]bool) (*scene.Node, error) {
	if idx < 0 || idx >= len(b.doc.Nodes) {
		return nil, fmt.Errorf("node %d out of range", idx)
	}
	if visited[idx] {
		return nil, fmt.Errorf("node %d appears twice in the hierarchy", idx)
	}
	visited[idx] = true

	src := b.doc.Nodes[idx]
	n := scene.NewNode(src.Name)
	n.Local = localMatrix(src)

	if src.Mesh != nil {
		prims, err := b.mesh(*src.Mesh)
		if err != nil {
			return nil, err
		}
		// A single primitive lives on the node itself, more become children.
		if len(prims) == 1 {
			n.Geometry = prims[0].geometry
			n.Material = prims[0].material
		} else {
			for i, p := range prims {
				n.Add(scene.NewMesh(fmt.Sprintf("%s#%d", src.Name, i), p.geometry, p.material))
			}
		}
	}

	for _, c := range src.Children {
		child, err := b.node(c, visited)
		if err != nil {
			return nil, err
		}
		n.Add(child)
	}
	return n, nil
}

func localMatrix(n *gltf.Node) math.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		return math.FromFloat64(m)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return math.Compose(
		math.V3(float32(t[0]), float32(t[1]), float32(t[2])),
		math.Quat{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])},
		math.V3(float32(s[0]), float32(s[1]), float32(s[2])),
	)
}

func (b *builder) mesh(idx int) ([]primitive, error) {
	if prims, ok := b.meshes[idx]; ok {
		return prims, nil
	}
	if idx < 0 || idx >= len(b.doc.Meshes) {
		return nil, fmt.Errorf("mesh %d out of range", idx)
	}
	var prims []primitive
	for i, p := range b.doc.Meshes[idx].Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		geo, err := b.geometry(p)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", idx, i, err)
		}
		mat, err := b.material(p.Material)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", idx, i, err)
		}
		prims = append(prims, primitive{geometry: geo, material: mat})
	}
	b.meshes[idx] = prims
	return prims, nil
}

func (b *builder) geometry(p *gltf.Primitive) (*scene.Geometry, error) {
	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	acr, err := b.accessor(posIdx)
	if err != nil {
		return nil, err
	}
	// An optional Draco extension keeps uncompressed accessors as a
	// fallback; without a buffer view there is nothing to read.
	if _, ok := p.Extensions[extDraco]; ok && acr.BufferView == nil {
		return nil, ErrDracoCompressed
	}
	positions, err := modeler.ReadPosition(b.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}
	geo := scene.NewGeometry(flatten3(positions), nil, nil)

	if p.Indices != nil {
		acr, err := b.accessor(*p.Indices)
		if err != nil {
			return nil, err
		}
		indices, err := modeler.ReadIndices(b.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("read indices: %w", err)
		}
		geo.Indices = indices
	}

	if idx, ok := p.Attributes[gltf.NORMAL]; ok {
		acr, err := b.accessor(idx)
		if err != nil {
			return nil, err
		}
		normals, err := modeler.ReadNormal(b.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("read normals: %w", err)
		}
		geo.Normals = flatten3(normals)
	} else if b.opts.ComputeNormals {
		geo.Normals = computeNormals(geo)
	}

	if idx, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		acr, err := b.accessor(idx)
		if err != nil {
			return nil, err
		}
		uvs, err := modeler.ReadTextureCoord(b.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("read texture coordinates: %w", err)
		}
		geo.UVs = flatten2(uvs)
	}
	return geo, nil
}

func (b *builder) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	return b.doc.Accessors[idx], nil
}

func (b *builder) material(idx *int) (*scene.Material, error) {
	if idx == nil {
		if b.fallback == nil {
			b.fallback = scene.DefaultMaterial()
		}
		return b.fallback, nil
	}
	if m, ok := b.materials[*idx]; ok {
		return m, nil
	}
	if *idx < 0 || *idx >= len(b.doc.Materials) {
		return nil, fmt.Errorf("material %d out of range", *idx)
	}
	src := b.doc.Materials[*idx]
	m := &scene.Material{Name: src.Name, Color: [4]float32{1, 1, 1, 1}, DoubleSided: src.DoubleSided}
	if pbr := src.PBRMetallicRoughness; pbr != nil {
		c := pbr.BaseColorFactorOrDefault()
		m.Color = [4]float32{float32(c[0]), float32(c[1]), float32(c[2]), float32(c[3])}
		if pbr.BaseColorTexture != nil && !b.opts.SkipTextures {
			tex, err := b.texture(pbr.BaseColorTexture.Index)
			if err != nil {
				return nil, fmt.Errorf("material %q: %w", src.Name, err)
			}
			m.Map = tex
		}
	}
	b.materials[*idx] = m
	return m, nil
}

func flatten3(v [][3]float32) []float32 {
	out := make([]float32, 0, len(v)*3)
	for _, p := range v {
		out = append(out, p[0], p[1], p[2])
	}
	return out
}

func flatten2(v [][2]float32) []float32 {
	out := make([]float32, 0, len(v)*2)
	for _, p := range v {
		out = append(out, p[0], p[1])
	}
	return out
}
