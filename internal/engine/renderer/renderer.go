// Package renderer draws the viewer's scene graph with OpenGL.
package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/camera"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/scene"
	"github.com/BesedinAlex/guides-fusion360-client/internal/engine/shader"
	"github.com/BesedinAlex/guides-fusion360-client/internal/logger"
	"github.com/BesedinAlex/guides-fusion360-client/pkg/math"
)

// MaxDirectionalLights is the number of directional lights the mesh
// shader accepts. Extra lights are ignored.
const MaxDirectionalLights = 4

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	Log    *zap.Logger
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config  Config
	log     *zap.Logger
	program *shader.Program

	lightDirs   []float32
	lightColors []float32
	disposed    bool
}

// New creates a new renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	log := cfg.Log
	if log == nil {
		log = logger.L()
	}
	r := &Renderer{
		config:      cfg,
		log:         log,
		lightDirs:   make([]float32, 0, MaxDirectionalLights*3),
		lightColors: make([]float32, 0, MaxDirectionalLights*3),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.CullFace(gl.BACK)

	var err error
	r.program, err = shader.CompileProgram(meshVertexShader, meshFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}
	log.Debug("shader program created", zap.Uint32("program", r.program.ID))

	r.SetSize(cfg.Width, cfg.Height)
	return r, nil
}

// SetSize sets the viewport.
func (r *Renderer) SetSize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Clear fills the frame with one colour. The host uses it while no
// scene is being rendered.
func (r *Renderer) Clear(c [4]float32) {
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// ReadPixels reads the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() (pixels []byte, width, height int) {
	width, height = r.config.Width, r.config.Height
	pixels = make([]byte, width*height*4)
	if len(pixels) == 0 {
		return pixels, width, height
	}
	gl.ReadBuffer(gl.BACK)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(width), int32(height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, width, height
}

// Render clears the frame with the graph's clear colour and draws every
// uploaded mesh node.
func (r *Renderer) Render(g *scene.Graph, cam *camera.Perspective) {
	if r.disposed || g == nil || cam == nil {
		return
	}

	cc := g.ClearColor
	gl.ClearColor(cc[0], cc[1], cc[2], cc[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	r.program.Use()
	r.program.SetMat4("uViewProj", cam.ViewProjection())
	r.applyLights(g.Lights())
	r.program.SetInt("uTexture", 0)

	g.Traverse(func(n *scene.Node, world math.Mat4) {
		if n.Geometry == nil {
			return
		}
		mesh, ok := n.Geometry.Mesh()
		if !ok {
			return
		}

		mat := n.Material
		if mat == nil {
			mat = scene.DefaultMaterial()
		}
		r.program.SetMat4("uModel", world)
		r.program.SetVec4("uBaseColor", mat.Color)
		if mat.Map != nil && mat.Map.Handle() != 0 {
			gl.ActiveTexture(gl.TEXTURE0)
			gl.BindTexture(gl.TEXTURE_2D, uint32(mat.Map.Handle()))
			r.program.SetInt("uHasTexture", 1)
		} else {
			r.program.SetInt("uHasTexture", 0)
		}
		if mat.DoubleSided {
			gl.Disable(gl.CULL_FACE)
		} else {
			gl.Enable(gl.CULL_FACE)
		}

		gl.BindVertexArray(uint32(mesh.VAO))
		if mesh.IndexCount > 0 {
			gl.DrawElements(gl.TRIANGLES, mesh.IndexCount, gl.UNSIGNED_INT, nil)
		} else {
			gl.DrawArrays(gl.TRIANGLES, 0, int32(n.Geometry.VertexCount()))
		}
	})

	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D, 0)
}

func (r *Renderer) applyLights(lights []scene.Light) {
	var ambient math.Vec3
	ambient, r.lightDirs, r.lightColors = packLights(lights, r.lightDirs[:0], r.lightColors[:0])

	count := int32(len(r.lightDirs) / 3)
	r.program.SetVec3("uAmbient", ambient)
	r.program.SetInt("uLightCount", count)
	if count > 0 {
		gl.Uniform3fv(r.program.Uniform("uLightDir"), count, &r.lightDirs[0])
		gl.Uniform3fv(r.program.Uniform("uLightColor"), count, &r.lightColors[0])
	}
}

// packLights sums ambient lights and appends the direction and scaled
// colour of each directional light, up to MaxDirectionalLights.
func packLights(lights []scene.Light, dirs, colors []float32) (math.Vec3, []float32, []float32) {
	var ambient math.Vec3
	for _, l := range lights {
		c := l.Color.Scale(l.Intensity)
		switch l.Kind {
		case scene.LightAmbient:
			ambient = ambient.Add(c)
		case scene.LightDirectional:
			if len(dirs)/3 >= MaxDirectionalLights {
				continue
			}
			d := l.Position.Normalize()
			dirs = append(dirs, d.X, d.Y, d.Z)
			colors = append(colors, c.X, c.Y, c.Z)
		}
	}
	return ambient, dirs, colors
}

// Dispose releases the shader program. GPU meshes belong to the scene
// graph and are released through the Device.
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	r.log.Info("closing renderer")
	if r.program != nil {
		r.program.Delete()
	}
}
