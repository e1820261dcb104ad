package main

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/rfsurface/internal/config"
	"github.com/Faultbox/rfsurface/internal/engine/camera"
	"github.com/Faultbox/rfsurface/internal/engine/debug"
	"github.com/Faultbox/rfsurface/internal/engine/input"
	"github.com/Faultbox/rfsurface/internal/engine/renderer"
	"github.com/Faultbox/rfsurface/internal/engine/window"
	"github.com/Faultbox/rfsurface/internal/explorer"
	"github.com/Faultbox/rfsurface/internal/picking"
	"github.com/Faultbox/rfsurface/internal/source"
	"github.com/Faultbox/rfsurface/internal/surface"
	"github.com/Faultbox/rfsurface/internal/viewer"
)

// keyBindings maps scancodes to actions. Shift+O opens a folder.
var keyBindings = map[sdl.Scancode]viewer.Action{
	sdl.SCANCODE_1:        viewer.ActionToggleSurface,
	sdl.SCANCODE_2:        viewer.ActionToggleAxes,
	sdl.SCANCODE_3:        viewer.ActionToggleLabels,
	sdl.SCANCODE_M:        viewer.ActionToggleMode,
	sdl.SCANCODE_EQUALS:   viewer.ActionDownsampleUp,
	sdl.SCANCODE_KP_PLUS:  viewer.ActionDownsampleUp,
	sdl.SCANCODE_MINUS:    viewer.ActionDownsampleDown,
	sdl.SCANCODE_KP_MINUS: viewer.ActionDownsampleDown,
	sdl.SCANCODE_R:        viewer.ActionCycleRow,
	sdl.SCANCODE_O:        viewer.ActionOpenFile,
	sdl.SCANCODE_L:        viewer.ActionLoadSample,
	sdl.SCANCODE_P:        viewer.ActionScreenshot,
	sdl.SCANCODE_F12:      viewer.ActionScreenshot,
	sdl.SCANCODE_C:        viewer.ActionResetCamera,
	sdl.SCANCODE_S:        viewer.ActionSaveSettings,
	sdl.SCANCODE_ESCAPE:   viewer.ActionQuit,
}

var imageExtensions = []string{"png", "jpg", "jpeg", "gif", "bmp", "webp"}

// App owns the window, renderer and the explorer driving them.
type App struct {
	cfg   *config.Config
	log   *zap.Logger
	win   *window.Window
	input *input.Input
	rend  *renderer.Renderer
	cam   *camera.OrbitCamera
	ex    *explorer.Explorer
	shots *debug.ScreenshotCapture

	tasks *viewer.Tasks
	queue *viewer.TaskQueue

	mouseX, mouseY int
	rotating       bool
	panning        bool
	hoverDirty     bool
	running        bool
}

// NewApp opens the window and wires the renderer to a fresh surface state.
func NewApp(cfg *config.Config, data explorer.DatasetSource, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	win, err := window.New(window.Config{
		Title:      "rfsurface",
		Width:      cfg.Viewer.Width,
		Height:     cfg.Viewer.Height,
		Fullscreen: cfg.Viewer.Fullscreen,
		VSync:      cfg.Viewer.VSync,
	}, log.Named("window"))
	if err != nil {
		return nil, err
	}

	dw, dh := win.DrawableSize()
	rend, err := renderer.New(renderer.Config{Width: dw, Height: dh}, log.Named("renderer"))
	if err != nil {
		win.Close()
		return nil, err
	}

	rend.SetLight(cfg.Viewer.Light())

	tasks := viewer.NewTasks(context.Background())
	v := &App{
		cfg:    cfg,
		log:    log,
		win:    win,
		input:  input.New(),
		rend:   rend,
		cam:    camera.NewOrbitCamera(cfg.Viewer.FOV),
		shots:  debug.NewScreenshotCapture(cfg.Viewer.ScreenshotDir, "rfsurface"),
		tasks:  tasks,
		queue:  viewer.NewTaskQueue(tasks.Context(), 8),
	}

	state := surface.NewState(surface.Hooks{
		Release:     rend.Release,
		ApplyLayers: rend.SetLayers,
		Installed: func(s *surface.Surface) {
			rend.Upload(s)
			v.hoverDirty = true
		},
	}, log.Named("state"))
	state.SetLayers(cfg.Layers)
	rend.SetLayers(nil, cfg.Layers)

	v.ex = explorer.New(explorer.Options{
		State:    state,
		Data:     data,
		Log:      log.Named("explorer"),
		Dispatch: v.queue.Dispatch,
		Params: explorer.Params{
			Mode:       cfg.Surface.SurfaceMode(),
			Downsample: cfg.Surface.Downsample,
			Row:        cfg.Surface.Policy(),
		},
	})
	return v, nil
}

// Explorer returns the explorer behind the window.
func (v *App) Explorer() *explorer.Explorer {
	return v.ex
}

// Close stops background work and frees the window. Call it from the main thread.
func (v *App) Close() {
	v.tasks.Close()
	v.ex.State().Close()
	v.rend.Close()
	v.win.Close()
}

// background runs fn off the GL thread. Its install step comes back through the queue.
func (v *App) background(name string, fn func(ctx context.Context) error) {
	started := v.tasks.Go(func(ctx context.Context) {
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			v.log.Debug("background task ended", zap.String("task", name), zap.Error(err))
		}
	})
	if !started {
		v.log.Debug("background task refused after shutdown", zap.String("task", name))
	}
}

// LoadSample starts loading the sample dataset.
func (v *App) LoadSample() {
	v.background("sample", func(ctx context.Context) error {
		_, err := v.ex.LoadSample(ctx)
		return err
	})
}

// Open analyzes the file or directory at path.
func (v *App) Open(path string) {
	v.background("open", func(ctx context.Context) error {
		files, skipped, err := source.ReadImageDir(path)
		for _, err := range skipped {
			v.log.Warn("skipping unreadable file", zap.Error(err))
		}
		if err != nil {
			v.ex.Report("open", err)
			return err
		}
		_, err = v.ex.Analyze(ctx, files)
		return err
	})
}

// Run drives the frame loop until the window closes.
func (v *App) Run() error {
	v.running = true
	for v.running {
		if v.input.Update() {
			v.running = false
		}
		for _, e := range v.input.Events() {
			v.handleEvent(e)
		}

		v.queue.Drain()

		if v.hoverDirty && !v.rotating && !v.panning {
			v.hover()
		}
		v.win.SetTitle(viewer.Title(v.ex.Status(), v.ex.Params(), v.ex.Readout()))

		v.rend.Draw(v.cam.ViewProjection(v.rend.Aspect()))
		v.win.SwapBuffers()
	}
	v.log.Info("viewer closed")
	return nil
}

func (v *App) hover() {
	v.hoverDirty = false
	w, h := v.win.Size()
	if w == 0 || h == 0 {
		return
	}
	inv := v.cam.ViewProjection(float32(w) / float32(h)).Inverse()
	ray := picking.ScreenToRay(float32(v.mouseX), float32(v.mouseY), float32(w), float32(h), inv)
	v.ex.Hover(ray)
}

func (v *App) handleEvent(e input.Event) {
	switch e.Type {
	case input.EventWindowResize:
		dw, dh := v.win.DrawableSize()
		v.rend.Resize(dw, dh)

	case input.EventMouseDown:
		switch e.Button {
		case input.ButtonLeft:
			v.rotating = true
		case input.ButtonRight, input.ButtonMiddle:
			v.panning = true
		}

	case input.EventMouseUp:
		switch e.Button {
		case input.ButtonLeft:
			v.rotating = false
		case input.ButtonRight, input.ButtonMiddle:
			v.panning = false
		}
		v.hoverDirty = true

	case input.EventMouseMove:
		v.mouseX, v.mouseY = e.MouseX, e.MouseY
		switch {
		case v.rotating:
			v.cam.HandleDrag(float32(e.DeltaX), float32(e.DeltaY))
		case v.panning:
			v.cam.HandlePan(float32(e.DeltaX), float32(e.DeltaY))
		default:
			v.hoverDirty = true
		}

	case input.EventMouseWheel:
		v.cam.HandleZoom(e.Wheel)
		v.hoverDirty = true

	case input.EventDrop:
		v.Open(e.Path)

	case input.EventKeyDown:
		a := keyBindings[e.Key]
		if a == viewer.ActionOpenFile && e.Shift {
			a = viewer.ActionOpenFolder
		}
		v.do(a)
	}
}

func (v *App) do(a viewer.Action) {
	if l, ok := viewer.ApplyLayers(v.ex.Layers(), a); ok {
		v.ex.SetLayers(l)
		return
	}
	if p, rebuild := viewer.ApplyParams(v.ex.Params(), a); p != v.ex.Params() {
		v.ex.SetParams(p)
		if rebuild {
			v.background("reanalyze", func(ctx context.Context) error {
				_, err := v.ex.Reanalyze(ctx)
				return err
			})
		}
		return
	}

	switch a {
	case viewer.ActionOpenFile:
		v.openDialog(false)
	case viewer.ActionOpenFolder:
		v.openDialog(true)
	case viewer.ActionLoadSample:
		v.LoadSample()
	case viewer.ActionScreenshot:
		v.screenshot()
	case viewer.ActionResetCamera:
		v.cam.Reset()
		v.hoverDirty = true
	case viewer.ActionSaveSettings:
		v.saveSettings()
	case viewer.ActionQuit:
		v.running = false
	}
}

// openDialog shows a native picker off the main loop and analyzes the choice.
// The dialog goroutine is not tracked: Close must not wait on a user.
func (v *App) openDialog(folder bool) {
	go func() {
		var (
			path string
			err  error
		)
		if folder {
			path, err = dialog.Directory().Title("Open image folder").Browse()
		} else {
			path, err = dialog.File().
				Filter("Images", imageExtensions...).
				Filter("All Files", "*").
				Title("Open image").
				Load()
		}
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				v.log.Warn("file dialog failed", zap.Error(err))
			}
			return
		}
		if v.tasks.Context().Err() != nil {
			return
		}
		v.log.Info("opening", zap.String("path", filepath.Clean(path)))
		v.Open(path)
	}()
}

func (v *App) screenshot() {
	w, h := v.cfg.Viewer.ScreenshotWidth, v.cfg.Viewer.ScreenshotHeight
	aspect := v.rend.Aspect()
	if w > 0 && h > 0 {
		aspect = float32(w) / float32(h)
	}
	pixels, w, h, err := v.rend.Capture(v.cam.ViewProjection(aspect), w, h)
	if err != nil {
		v.ex.Report("screenshot", err)
		return
	}
	path, err := v.shots.CaptureFromPixels(pixels, w, h)
	if err != nil {
		v.ex.Report("screenshot", err)
		return
	}
	v.log.Info("screenshot saved", zap.String("path", path))
	v.ex.Notify("screenshot saved to " + path)
}

// saveSettings writes the current analysis parameters and layers to the user config.
func (v *App) saveSettings() {
	p := v.ex.Params()
	v.cfg.Surface.Set(p.Mode, p.Downsample, p.Row)
	v.cfg.Layers = v.ex.Layers()
	if err := v.cfg.Save(); err != nil {
		v.ex.Report("save settings", err)
		return
	}
	path := filepath.Join(config.ConfigDir(), config.FileName)
	v.log.Info("settings saved", zap.String("path", path))
	v.ex.Notify("settings saved to " + path)
}
