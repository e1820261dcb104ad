// Package renderer draws the live surface and its helper lines with OpenGL 4.1.
package renderer

import (
	_ "embed"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/rfsurface/internal/engine/debug"
	"github.com/Faultbox/rfsurface/internal/engine/framebuffer"
	"github.com/Faultbox/rfsurface/internal/engine/lighting"
	"github.com/Faultbox/rfsurface/internal/engine/shader"
	"github.com/Faultbox/rfsurface/internal/surface"
	"github.com/Faultbox/rfsurface/pkg/math"
)

var (
	//go:embed shaders/surface.vert
	surfaceVertSrc string
	//go:embed shaders/surface.frag
	surfaceFragSrc string
	//go:embed shaders/line.vert
	lineVertSrc string
	//go:embed shaders/line.frag
	lineFragSrc string
)

// Helper line geometry.
const (
	AxesLength    = 1
	TickDivisions = 4
	TickSize      = 0.03
)

// Background is #0b0f14.
var Background = [3]float32{0x0b / 255.0, 0x0f / 255.0, 0x14 / 255.0}

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

// Renderer owns all GPU resources. Every method must run on the GL thread.
type Renderer struct {
	config Config
	log    *zap.Logger
	light  lighting.Light

	surfaceProg *shader.Program
	lineProg    *shader.Program

	mesh   *gpuMesh
	meshOf *surface.Surface
	box    *lineBatch
	axes   *lineBatch
	ticks  *lineBatch

	layers surface.Layers
}

// New creates a renderer. It must be called after the GL context exists.
func New(cfg Config, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Renderer{config: cfg, log: log, light: lighting.Default(), layers: surface.AllLayers()}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.ClearColor(Background[0], Background[1], Background[2], 1)

	var err error
	if r.surfaceProg, err = shader.New(surfaceVertSrc, surfaceFragSrc); err != nil {
		return nil, fmt.Errorf("surface shader: %w", err)
	}
	if r.lineProg, err = shader.New(lineVertSrc, lineFragSrc); err != nil {
		r.surfaceProg.Delete()
		return nil, fmt.Errorf("line shader: %w", err)
	}

	r.axes = newLineBatch(debug.Axes(AxesLength))
	r.ticks = newLineBatch(debug.Ticks(TickDivisions, TickSize, surface.HeightScale))
	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Close frees every GPU resource.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	r.releaseMesh()
	r.axes.delete()
	r.ticks.delete()
	r.surfaceProg.Delete()
	r.lineProg.Delete()
}

// Resize updates the viewport.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// Aspect returns the viewport aspect ratio.
func (r *Renderer) Aspect() float32 {
	if r.config.Height == 0 {
		return 1
	}
	return float32(r.config.Width) / float32(r.config.Height)
}

// Upload replaces the GPU mesh with s. Use it as surface.Hooks.Installed.
func (r *Renderer) Upload(s *surface.Surface) {
	r.releaseMesh()
	r.mesh = newGPUMesh(s.Mesh)
	r.meshOf = s
	r.box = newLineBatch(debug.Box(s.Mesh.Bounds.Min, s.Mesh.Bounds.Max))
	r.log.Debug("surface uploaded",
		zap.String("id", s.ID.String()),
		zap.Int("vertices", len(s.Mesh.Vertices)),
		zap.Int("indices", len(s.Mesh.Indices)))
}

// Release frees the GPU mesh if it belongs to s. Use it as surface.Hooks.Release.
func (r *Renderer) Release(s *surface.Surface) {
	if r.meshOf == s {
		r.releaseMesh()
	}
}

func (r *Renderer) releaseMesh() {
	if r.mesh != nil {
		r.mesh.delete()
		r.mesh = nil
	}
	if r.box != nil {
		r.box.delete()
		r.box = nil
	}
	r.meshOf = nil
}

// SetLayers sets visibility flags. Use it as surface.Hooks.ApplyLayers.
func (r *Renderer) SetLayers(_ *surface.Surface, l surface.Layers) {
	r.layers = l
}

// SetLight replaces the scene light.
func (r *Renderer) SetLight(l lighting.Light) {
	r.light = l
}

// Draw clears the frame and draws the visible layers.
func (r *Renderer) Draw(viewProj math.Mat4) {
	gl.ClearColor(Background[0], Background[1], Background[2], 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	if r.layers.Surface && r.mesh != nil {
		r.surfaceProg.Use()
		r.surfaceProg.SetMat4("uViewProj", viewProj)
		r.surfaceProg.SetVec3("uLightDir", r.light.Direction().Array())
		r.surfaceProg.SetFloat("uAmbient", r.light.Ambient)
		r.surfaceProg.SetFloat("uDirectional", r.light.Directional)
		r.mesh.draw()
	}

	if !r.layers.Axes && !r.layers.Labels {
		return
	}
	r.lineProg.Use()
	r.lineProg.SetMat4("uViewProj", viewProj)
	if r.layers.Axes {
		r.axes.draw()
	}
	if r.layers.Labels {
		r.ticks.draw()
		if r.box != nil {
			r.box.draw()
		}
	}
}

// Capture renders one frame offscreen at width x height and returns it as
// bottom-up RGBA rows. A non-positive size falls back to the viewport size.
func (r *Renderer) Capture(viewProj math.Mat4, width, height int) ([]byte, int, int, error) {
	if width <= 0 || height <= 0 {
		width, height = r.config.Width, r.config.Height
	}
	fb, err := framebuffer.New(width, height)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("capture target: %w", err)
	}
	defer fb.Delete()

	restore := fb.Bind()
	r.Draw(viewProj)
	pixels := fb.ReadPixels()
	restore()

	w, h := fb.Size()
	r.log.Debug("frame captured", zap.Int("width", w), zap.Int("height", h))
	return pixels, w, h, nil
}
