package model

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // glTF core image formats
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // EXT_texture_webp

	"github.com/qmuntal/gltf/modeler"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/scene"
)

func (b *builder) texture(idx int) (*scene.Texture, error) {
	if t, ok := b.textures[idx]; ok {
		return t, nil
	}
	if idx < 0 || idx >= len(b.doc.Textures) {
		return nil, fmt.Errorf("texture %d out of range", idx)
	}
	src := b.doc.Textures[idx].Source
	if src == nil || *src < 0 || *src >= len(b.doc.Images) {
		return nil, fmt.Errorf("texture %d has no image", idx)
	}
	data, err := b.imageData(*src)
	if err != nil {
		return nil, fmt.Errorf("texture %d: %w", idx, err)
	}
	t, err := DecodeTexture(data)
	if err != nil {
		return nil, fmt.Errorf("texture %d: %w", idx, err)
	}
	b.textures[idx] = t
	return t, nil
}

func (b *builder) imageData(idx int) ([]byte, error) {
	img := b.doc.Images[idx]
	switch {
	case img.BufferView != nil:
		if *img.BufferView < 0 || *img.BufferView >= len(b.doc.BufferViews) {
			return nil, fmt.Errorf("image %d: buffer view out of range", idx)
		}
		return modeler.ReadBufferView(b.doc, b.doc.BufferViews[*img.BufferView])
	case img.IsEmbeddedResource():
		return img.MarshalData()
	default:
		return nil, fmt.Errorf("image %d: external image %q is not supported", idx, img.URI)
	}
}

// DecodeTexture decodes a PNG, JPEG or WebP image into an RGBA8 texture.
func DecodeTexture(data []byte) (*scene.Texture, error) {
	if len(data) == 0 {
		return nil, errors.New("empty image")
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	bounds := src.Bounds()
	rgba, ok := src.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	}
	return &scene.Texture{Width: bounds.Dx(), Height: bounds.Dy(), Pixels: rgba.Pix}, nil
}
