package viewer

import (
	"sync/atomic"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/camera"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/input"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/scene"
)

// Surface is the output target a scene context draws into and takes
// pointer input from.
type Surface interface {
	Size() (width, height int)
	AddListener(l input.Listener) (remove func())
}

// Renderer draws a scene graph through a camera.
type Renderer interface {
	Render(g *scene.Graph, cam *camera.Perspective)
	SetSize(width, height int)
	Dispose()
}

// VirtualSurface is a Surface without a window. Events are injected with
// Dispatch.
type VirtualSurface struct {
	*input.Hub
	Width, Height int
}

// NewVirtualSurface creates a width x height surface.
func NewVirtualSurface(width, height int) *VirtualSurface {
	return &VirtualSurface{Hub: input.NewHub(), Width: width, Height: height}
}

// Size implements Surface.
func (s *VirtualSurface) Size() (int, int) {
	return s.Width, s.Height
}

// AddListener implements Surface.
func (s *VirtualSurface) AddListener(l input.Listener) func() {
	return s.Hub.Add(l)
}

// Resize changes the size and dispatches a resize event.
func (s *VirtualSurface) Resize(width, height int) {
	s.Width, s.Height = width, height
	s.Dispatch(input.Event{Type: input.EventWindowResize, Width: width, Height: height})
}

// HeadlessRenderer counts frames instead of drawing them.
type HeadlessRenderer struct {
	frames   atomic.Uint64
	width    int
	height   int
	disposed bool
}

// Render implements Renderer.
func (r *HeadlessRenderer) Render(*scene.Graph, *camera.Perspective) {
	r.frames.Add(1)
}

// SetSize implements Renderer.
func (r *HeadlessRenderer) SetSize(width, height int) {
	r.width, r.height = width, height
}

// Dispose implements Renderer.
func (r *HeadlessRenderer) Dispose() {
	r.disposed = true
}

// Frames returns the number of frames rendered.
func (r *HeadlessRenderer) Frames() uint64 {
	return r.frames.Load()
}

// Disposed reports whether Dispose ran.
func (r *HeadlessRenderer) Disposed() bool {
	return r.disposed
}
