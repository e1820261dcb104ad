// Package explorer runs the user-facing actions: analyze images, load the sample
// dataset, hover the surface and toggle layers. Every failure becomes status text;
// the live surface is only ever replaced by a complete build.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/rfsurface/internal/grid"
	"github.com/Faultbox/rfsurface/internal/picking"
	"github.com/Faultbox/rfsurface/internal/source"
	"github.com/Faultbox/rfsurface/internal/surface"
	"github.com/Faultbox/rfsurface/pkg/rfdata"
)

// DatasetSource provides the binary sample dataset.
type DatasetSource interface {
	Fetch(ctx context.Context) (*rfdata.Dataset, error)
}

// Params are the analysis inputs chosen in the UI.
type Params struct {
	Mode       surface.Mode   `json:"mode"`
	Downsample int            `json:"downsample"`
	Row        grid.RowPolicy `json:"row"`
}

// Normalize clamps Downsample to at least 1.
func (p Params) Normalize() Params {
	p.Downsample = max(1, p.Downsample)
	return p
}

// Status is the user-visible outcome of the last action.
type Status struct {
	Text  string    `json:"text"`
	Error bool      `json:"error"`
	Busy  bool      `json:"busy"`
	Time  time.Time `json:"time"`
}

// Options configure an Explorer.
type Options struct {
	State *surface.State
	Data  DatasetSource
	Log   *zap.Logger
	// Dispatch runs install steps. Nil runs them inline. A renderer that must
	// install on its own thread passes a function that queues fn there.
	Dispatch func(fn func())
	Params   Params
}

// Explorer coordinates sources, the surface builder and the pick inverter.
type Explorer struct {
	state    *surface.State
	data     DatasetSource
	log      *zap.Logger
	dispatch func(func())

	mu        sync.Mutex
	params    Params
	status    Status
	readout   picking.Readout
	lastFiles []source.File
}

// New creates an explorer.
func New(opts Options) *Explorer {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	dispatch := opts.Dispatch
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	state := opts.State
	if state == nil {
		state = surface.NewState(surface.Hooks{}, log)
	}
	return &Explorer{
		state:    state,
		data:     opts.Data,
		log:      log,
		dispatch: dispatch,
		params:   opts.Params.Normalize(),
		status:   Status{Text: "ready", Time: time.Now()},
	}
}

// State returns the surface state.
func (e *Explorer) State() *surface.State {
	return e.state
}

// Params returns the current analysis parameters.
func (e *Explorer) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// SetParams replaces the analysis parameters.
func (e *Explorer) SetParams(p Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = p.Normalize()
}

// Status returns the last status.
func (e *Explorer) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Explorer) setStatus(text string, isErr, busy bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status = Status{Text: text, Error: isErr, Busy: busy, Time: time.Now()}
}

// fail records err as status text. Superseded results are dropped silently.
func (e *Explorer) fail(action string, err error) error {
	if errors.Is(err, surface.ErrSuperseded) {
		e.log.Debug("result superseded", zap.String("action", action))
		return err
	}
	e.log.Error(action+" failed", zap.Error(err))
	e.setStatus(fmt.Sprintf("%s failed: %v", action, err), true, false)
	return err
}

// Report records a failure of an action that runs outside the explorer.
func (e *Explorer) Report(action string, err error) {
	e.fail(action, err)
}

// Notify sets an informational status.
func (e *Explorer) Notify(text string) {
	e.setStatus(text, false, false)
}

// install hands s to the state through the dispatcher and waits for the result.
// Once the caller gives up, a still-queued install is skipped; an install that
// already ran is reported as its own result.
func (e *Explorer) install(ctx context.Context, t surface.Ticket, s *surface.Surface) error {
	var (
		mu        sync.Mutex
		abandoned bool
	)
	done := make(chan error, 1)
	e.dispatch(func() {
		mu.Lock()
		defer mu.Unlock()
		if abandoned {
			e.log.Debug("install skipped after cancel", zap.String("id", s.ID.String()))
			return
		}
		done <- e.state.Install(t, s)
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		mu.Lock()
		abandoned = true
		mu.Unlock()
		select {
		case err := <-done:
			return err
		default:
			return ctx.Err()
		}
	}
}

// Analyze builds a surface from user files with the current parameters.
func (e *Explorer) Analyze(ctx context.Context, files []source.File) (*surface.Surface, error) {
	return e.analyze(ctx, files, e.Params())
}

// AnalyzeWith stores p as the current parameters and analyzes files with them.
func (e *Explorer) AnalyzeWith(ctx context.Context, files []source.File, p Params) (*surface.Surface, error) {
	p = p.Normalize()
	e.SetParams(p)
	return e.analyze(ctx, files, p)
}

func (e *Explorer) analyze(ctx context.Context, files []source.File, p Params) (*surface.Surface, error) {
	ticket := e.state.Begin()

	e.mu.Lock()
	e.lastFiles = files
	e.mu.Unlock()

	e.setStatus(fmt.Sprintf("analyzing %d file(s) in %s mode", len(files), p.Mode), false, true)
	e.log.Info("analyze",
		zap.Int("files", len(files)),
		zap.Stringer("mode", p.Mode),
		zap.Int("downsample", p.Downsample),
		zap.Stringer("row", p.Row))

	s, err := e.build(ctx, files, p)
	if err != nil {
		return nil, e.fail("analyze", err)
	}
	if err := e.install(ctx, ticket, s); err != nil {
		return nil, e.fail("analyze", err)
	}

	dims := s.Layout.Dims()
	switch l := s.Layout.(type) {
	case surface.SingleLayout:
		e.setStatus(fmt.Sprintf("image %dx%d, surface %s (downsample %d)", l.Width, l.Height, dims, l.Downsample), false, false)
	case surface.MultiLayout:
		e.setStatus(fmt.Sprintf("%d images, %d freq bins, row %s", l.Time, l.Width, p.Row), false, false)
	}
	return s, nil
}

// Reanalyze repeats the last Analyze with the current parameters.
func (e *Explorer) Reanalyze(ctx context.Context) (*surface.Surface, error) {
	e.mu.Lock()
	files := e.lastFiles
	e.mu.Unlock()
	if len(files) == 0 {
		return nil, e.fail("analyze", &source.Error{Kind: source.KindInput, Op: "reanalyze", Err: source.ErrNoFiles})
	}
	return e.Analyze(ctx, files)
}

func (e *Explorer) build(ctx context.Context, files []source.File, p Params) (*surface.Surface, error) {
	switch p.Mode {
	case surface.ModeMulti:
		stack, err := source.LoadStack(ctx, files, p.Row)
		if err != nil {
			return nil, err
		}
		return surface.BuildMulti(stack)
	default:
		g, err := source.LoadSingle(files)
		if err != nil {
			return nil, err
		}
		return surface.BuildSingle(g, p.Downsample)
	}
}

// LoadSample fetches the binary dataset and builds the time series of the row
// chosen by the current row policy.
func (e *Explorer) LoadSample(ctx context.Context) (*surface.Surface, error) {
	if e.data == nil {
		return nil, e.fail("load sample", errors.New("no dataset configured"))
	}
	ticket := e.state.Begin()
	policy := e.Params().Row
	e.setStatus("loading sample dataset", false, true)

	ds, err := e.data.Fetch(ctx)
	if err != nil {
		return nil, e.fail("load sample", err)
	}
	vol, err := source.NewVolume(ds)
	if err != nil {
		return nil, e.fail("load sample", err)
	}
	stack, err := vol.Slices(policy)
	if err != nil {
		return nil, e.fail("load sample", err)
	}
	s, err := surface.BuildMulti(stack)
	if err != nil {
		return nil, e.fail("load sample", err)
	}
	if err := e.install(ctx, ticket, s); err != nil {
		return nil, e.fail("load sample", err)
	}

	shape := ds.Meta.Shape
	row := policy.Row(shape.Height)
	e.log.Info("sample loaded", zap.Stringer("shape", shape), zap.Int("row", row))
	e.setStatus(fmt.Sprintf("sample: %d time steps, %d freq bins, row %d of %d",
		shape.Time, shape.Width, row, shape.Height), false, false)
	return s, nil
}

// Hover picks the live surface with r. A miss clears the readout.
func (e *Explorer) Hover(r picking.Ray) picking.Readout {
	var readout picking.Readout
	if s, err := e.state.Current(); err == nil {
		readout = picking.Pick(r, s)
	}
	e.mu.Lock()
	e.readout = readout
	e.mu.Unlock()
	return readout
}

// Readout returns the result of the last Hover.
func (e *Explorer) Readout() picking.Readout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.readout
}

// SetLayers updates visibility flags and applies them to the live surface.
func (e *Explorer) SetLayers(l surface.Layers) {
	e.state.SetLayers(l)
	e.log.Debug("layers changed",
		zap.Bool("surface", l.Surface),
		zap.Bool("axes", l.Axes),
		zap.Bool("labels", l.Labels))
}

// Layers returns the current visibility flags.
func (e *Explorer) Layers() surface.Layers {
	return e.state.Layers()
}
