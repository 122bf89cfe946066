package viewer

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"go.uber.org/zap"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/camera"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/gpu"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/input"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/model"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/picking"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/scene"
	"github.com/BesedinAlex/guides-fusion360-client/internal/lifecycle"
	"github.com/BesedinAlex/guides-fusion360-client/internal/logger"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// Camera defaults.
const (
	FieldOfView = 55
	NearPlane   = 0.1
	FarPlane    = 100000
)

// InitialCameraPosition is where the camera sits until a model is framed.
var InitialCameraPosition = math.V3(225, 150, 375)

// DecodeFunc turns a model binary into a scene node.
type DecodeFunc func(data []byte) (*scene.Node, error)

// ContextOptions configures Initialize.
type ContextOptions struct {
	Device   gpu.Device
	Renderer Renderer

	EnableDamping bool
	DampingFactor float32

	// Decode defaults to the glTF decoder.
	Decode DecodeFunc

	// Worker runs the decode and Dispatcher brings the result back to the
	// owning goroutine. Without them the model is decoded inline.
	Worker     *Worker
	Dispatcher *Dispatcher
	// Ticket guards the asynchronous load. The zero ticket skips the check.
	Ticket lifecycle.Ticket

	// OnLoaded runs after the model is in the graph and framed.
	OnLoaded func()
	// OnLoadFailure receives errors wrapping ErrLoadFailure.
	OnLoadFailure func(err error)

	Log *zap.Logger
}

// SceneContext owns everything needed to draw and pick one model: camera,
// renderer, orbit controls, scene graph, raycaster and pointer. Its methods
// belong to the goroutine that created it.
type SceneContext struct {
	Camera    *camera.Perspective
	Controls  *camera.OrbitControls
	Graph     *scene.Graph
	Raycaster *picking.Raycaster
	Pointer   math.Vec2
	Model     *scene.Node

	renderer Renderer
	device   gpu.Device
	surface  Surface
	log      *zap.Logger

	width, height int
	detach        []func()

	live     bool
	loaded   bool
	torndown bool
}

// Initialize builds a scene context on surface and starts loading resource
// into it. Errors are returned only for unusable arguments; a model that
// fails to decode is reported through opts.OnLoadFailure.
func Initialize(resource []byte, surface Surface, opts ContextOptions) (*SceneContext, error) {
	if surface == nil {
		return nil, errors.New("initialize scene: nil surface")
	}
	if opts.Device == nil || opts.Renderer == nil {
		return nil, errors.New("initialize scene: device and renderer are required")
	}
	if opts.Decode == nil {
		opts.Decode = func(data []byte) (*scene.Node, error) {
			return model.Decode(data, model.DefaultOptions())
		}
	}
	log := opts.Log
	if log == nil {
		log = logger.L()
	}

	width, height := surface.Size()
	if width <= 0 || height <= 0 {
		width, height = 1, 1
	}

	sc := &SceneContext{
		Graph:     scene.NewGraph(),
		Raycaster: picking.NewRaycaster(),
		renderer:  opts.Renderer,
		device:    opts.Device,
		surface:   surface,
		log:       log,
		width:     width,
		height:    height,
		live:      true,
	}
	addLights(sc.Graph)

	sc.Camera = camera.NewPerspective(FieldOfView, float32(width)/float32(height), NearPlane, FarPlane)
	sc.Camera.SetPosition(InitialCameraPosition)
	sc.Camera.LookAt(math.Vec3{})

	sc.renderer.SetSize(width, height)

	sc.Controls = camera.NewOrbitControls(sc.Camera)
	sc.Controls.EnableDamping = opts.EnableDamping
	if opts.DampingFactor > 0 {
		sc.Controls.DampingFactor = opts.DampingFactor
	}
	sc.Controls.SetViewportHeight(height)

	sc.detach = append(sc.detach,
		surface.AddListener(sc.Controls),
		surface.AddListener(input.ListenerFunc(sc.handleEvent)),
	)

	log.Debug("scene context initialized", zap.Int("width", width), zap.Int("height", height))
	sc.load(resource, opts)
	return sc, nil
}

// addLights installs the fixed lighting rig: a soft ambient term, a warm
// key light, a cool fill light and a white back light.
func addLights(g *scene.Graph) {
	g.Add(
		scene.NewLight("ambient", scene.Light{Kind: scene.LightAmbient, Color: math.V3(1, 1, 1), Intensity: 0.4}),
		scene.NewLight("key", scene.Light{Kind: scene.LightDirectional, Color: math.V3(1, 0.75, 0.5), Intensity: 1.0, Position: math.V3(-100, 0, 100)}),
		scene.NewLight("fill", scene.Light{Kind: scene.LightDirectional, Color: math.V3(0.5, 0.5, 1), Intensity: 0.75, Position: math.V3(100, 0, 100)}),
		scene.NewLight("back", scene.Light{Kind: scene.LightDirectional, Color: math.V3(1, 1, 1), Intensity: 1.0, Position: math.V3(100, 0, -100).Normalize()}),
	)
}

func (sc *SceneContext) load(resource []byte, opts ContextOptions) {
	finish := func(root *scene.Node, err error) {
		if opts.Ticket.ID() != 0 && !opts.Ticket.Valid() {
			sc.log.Debug("dropping model decoded after teardown")
			return
		}
		if !sc.live {
			return
		}
		if err == nil {
			err = sc.attach(root)
		}
		if err != nil {
			if opts.OnLoadFailure != nil {
				opts.OnLoadFailure(fmt.Errorf("%w: %w", ErrLoadFailure, err))
			}
			return
		}
		if opts.OnLoaded != nil {
			opts.OnLoaded()
		}
	}

	if opts.Worker == nil || opts.Dispatcher == nil {
		root, err := opts.Decode(resource)
		finish(root, err)
		return
	}
	decode := opts.Decode
	ok := opts.Worker.Submit(func() {
		root, err := decode(resource)
		opts.Dispatcher.Post(func() { finish(root, err) })
	})
	if !ok {
		sc.log.Debug("worker stopped before model decode")
	}
}

// attach uploads the decoded model, adds it to the graph and frames it.
func (sc *SceneContext) attach(root *scene.Node) error {
	if root == nil {
		return errors.New("decoder returned no scene")
	}
	holder := scene.NewGraph()
	holder.Add(root)
	if err := holder.Upload(sc.device); err != nil {
		holder.Dispose(sc.device)
		return fmt.Errorf("upload model: %w", err)
	}
	holder.Root.Remove(root)
	sc.Graph.Add(root)
	sc.Model = root
	sc.loaded = true
	sc.frame()
	return nil
}

// frame moves the camera so the whole model fits the view and aims the
// controls at its centre.
func (sc *SceneContext) frame() {
	box := sc.Graph.BoundingBox()
	if box.IsEmpty() {
		return
	}
	size := box.Size()
	objectSize := math32.Max(size.X, size.Y)
	offset := objectSize / (2 * math32.Tan(math.Radians(sc.Camera.FOV)/2))
	center := box.Center()

	sc.Camera.SetPosition(math.V3(offset, offset, offset))
	sc.Controls.Target = center
	sc.Camera.LookAt(center)
	sc.log.Debug("model framed",
		zap.Float32("size", objectSize),
		zap.Float32("offset", offset))
}

func (sc *SceneContext) handleEvent(e input.Event) {
	switch e.Type {
	case input.EventWindowResize:
		sc.Resize(e.Width, e.Height)
	case input.EventMouseMove:
		sc.Pointer = picking.PointerToNDC(float32(e.MouseX), float32(e.MouseY), sc.width, sc.height)
	}
}

// Live reports whether the context can still be used.
func (sc *SceneContext) Live() bool {
	return sc != nil && sc.live
}

// Loaded reports whether the model has been attached.
func (sc *SceneContext) Loaded() bool {
	return sc != nil && sc.loaded
}

// Size returns the viewport size in pixels.
func (sc *SceneContext) Size() (width, height int) {
	return sc.width, sc.height
}

// Resize updates the camera aspect and renderer viewport.
func (sc *SceneContext) Resize(width, height int) {
	if !sc.Live() || width <= 0 || height <= 0 {
		return
	}
	sc.width, sc.height = width, height
	sc.Camera.SetAspect(float32(width) / float32(height))
	sc.renderer.SetSize(width, height)
	sc.Controls.SetViewportHeight(height)
}

// Update advances the controls and draws one frame.
func (sc *SceneContext) Update() {
	if !sc.Live() {
		return
	}
	sc.Controls.Update()
	sc.renderer.Render(sc.Graph, sc.Camera)
}

// Pick casts a ray through pixel (px, py) and returns the nearest surface
// point. A miss returns ok=false.
func (sc *SceneContext) Pick(px, py int) (point math.Vec3, ok bool) {
	if !sc.Live() {
		return math.Vec3{}, false
	}
	sc.Pointer = picking.PointerToNDC(float32(px), float32(py), sc.width, sc.height)
	sc.Raycaster.SetFromCamera(sc.Pointer, sc.Camera)
	hits := sc.Raycaster.IntersectGraph(sc.Graph)
	if len(hits) == 0 {
		return math.Vec3{}, false
	}
	return hits[0].Point, true
}

// Teardown releases everything the context owns: controls first, then
// event listeners, the renderer and finally every GPU resource in the
// scene graph. It is safe on a nil context and when called repeatedly.
func (sc *SceneContext) Teardown() {
	if sc == nil || sc.torndown {
		return
	}
	sc.torndown = true
	sc.live = false

	if sc.Controls != nil {
		sc.Controls.Dispose()
	}
	for _, remove := range sc.detach {
		remove()
	}
	sc.detach = nil
	if sc.renderer != nil {
		sc.renderer.Dispose()
	}
	if sc.Graph != nil {
		sc.Graph.Dispose(sc.device)
	}

	sc.Controls = nil
	sc.Camera = nil
	sc.Raycaster = nil
	sc.Pointer = math.Vec2{}
	sc.Graph = nil
	sc.Model = nil
	sc.renderer = nil
	sc.surface = nil
	sc.log.Debug("scene context torn down")
}
