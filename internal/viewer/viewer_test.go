package viewer

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/rfsurface/internal/explorer"
	"github.com/Faultbox/rfsurface/internal/grid"
	"github.com/Faultbox/rfsurface/internal/picking"
	"github.com/Faultbox/rfsurface/internal/source"
	"github.com/Faultbox/rfsurface/internal/surface"
)

func TestApplyLayers(t *testing.T) {
	l, ok := ApplyLayers(surface.AllLayers(), ActionToggleAxes)
	require.True(t, ok)
	assert.Equal(t, surface.Layers{Surface: true, Labels: true}, l)

	l, ok = ApplyLayers(l, ActionToggleAxes)
	require.True(t, ok)
	assert.Equal(t, surface.AllLayers(), l)

	_, ok = ApplyLayers(l, ActionLoadSample)
	assert.False(t, ok)
}

func TestApplyParams(t *testing.T) {
	single := explorer.Params{Mode: surface.ModeSingle, Downsample: 1, Row: grid.RowMiddle}

	tests := []struct {
		name        string
		in          explorer.Params
		action      Action
		want        explorer.Params
		wantRebuild bool
	}{
		{"mode toggles", single, ActionToggleMode,
			explorer.Params{Mode: surface.ModeMulti, Downsample: 1}, true},
		{"downsample up", single, ActionDownsampleUp,
			explorer.Params{Downsample: 2}, true},
		{"downsample floor", single, ActionDownsampleDown, single, false},
		{"downsample cap", explorer.Params{Downsample: MaxDownsample}, ActionDownsampleUp,
			explorer.Params{Downsample: MaxDownsample}, false},
		{"downsample ignored in multi", explorer.Params{Mode: surface.ModeMulti, Downsample: 3}, ActionDownsampleDown,
			explorer.Params{Mode: surface.ModeMulti, Downsample: 2}, false},
		{"row cycles", explorer.Params{Mode: surface.ModeMulti, Downsample: 1}, ActionCycleRow,
			explorer.Params{Mode: surface.ModeMulti, Downsample: 1, Row: grid.RowBottom}, true},
		{"row ignored in single", single, ActionCycleRow,
			explorer.Params{Downsample: 1, Row: grid.RowBottom}, false},
		{"unrelated", single, ActionScreenshot, single, false},
		{"save leaves params", single, ActionSaveSettings, single, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rebuild := ApplyParams(tt.in, tt.action)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantRebuild, rebuild)
		})
	}
}

func TestTitle(t *testing.T) {
	r := picking.Readout{Valid: true, Mode: surface.ModeSingle, X: 12, Z: 3, Value: 0.502}
	got := Title(explorer.Status{Text: "image 4x4"}, explorer.Params{Downsample: 2}, r)
	assert.Equal(t, "rfsurface [single ds=2] image 4x4 | freq_bin=12 time_row=3 power=0.502", got)

	got = Title(explorer.Status{Text: "fetch failed", Error: true},
		explorer.Params{Mode: surface.ModeMulti, Row: grid.RowTop}, picking.Readout{})
	assert.Equal(t, "rfsurface [multi row=top] error: fetch failed | "+picking.Placeholder, got)

	got = Title(explorer.Status{Text: "loading", Busy: true}, explorer.Params{Downsample: 1}, picking.Readout{})
	assert.Contains(t, got, "working: loading")
}

func TestTaskQueueDrain(t *testing.T) {
	q := NewTaskQueue(context.Background(), 4)
	var ran []int
	for i := range 3 {
		q.Dispatch(func() { ran = append(ran, i) })
	}
	assert.Equal(t, 3, q.Drain())
	assert.Equal(t, []int{0, 1, 2}, ran)
	assert.Equal(t, 0, q.Drain())
}

func TestTaskQueueGivesUpAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewTaskQueue(ctx, 0)
	cancel()

	done := make(chan struct{})
	go func() {
		q.Dispatch(func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked after cancel")
	}
}

// The explorer installs only when the frame loop drains the queue.
func TestTaskQueueDefersInstall(t *testing.T) {
	q := NewTaskQueue(context.Background(), 1)
	ex := explorer.New(explorer.Options{Dispatch: q.Dispatch})

	img := image.NewGray(image.Rect(0, 0, 3, 3))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	files := []source.File{source.NewFile("a.png", "image/png", buf.Bytes())}

	type result struct {
		s   *surface.Surface
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, err := ex.Analyze(context.Background(), files)
		done <- result{s, err}
	}()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case res := <-done:
			require.NoError(t, res.err)
			cur, err := ex.State().Current()
			require.NoError(t, err)
			assert.Same(t, res.s, cur)
			return
		case <-deadline:
			t.Fatal("analyze never finished")
		default:
			q.Drain()
			time.Sleep(time.Millisecond)
		}
	}
}

func TestTasksCloseWaitsForTracked(t *testing.T) {
	tasks := NewTasks(context.Background())
	finished := make(chan struct{})
	started := make(chan struct{})
	require.True(t, tasks.Go(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		close(finished)
	}))
	<-started

	tasks.Close()
	select {
	case <-finished:
	default:
		t.Fatal("Close returned before the tracked task finished")
	}
}

func TestTasksCloseIgnoresBlockedDialog(t *testing.T) {
	tasks := NewTasks(context.Background())
	chosen := make(chan string)
	opened := make(chan bool, 1)

	// A native dialog is still open when the window closes.
	go func() {
		path := <-chosen
		opened <- tasks.Go(func(context.Context) { t.Errorf("opened %s after shutdown", path) })
	}()

	closed := make(chan struct{})
	go func() {
		tasks.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on an untracked dialog")
	}

	chosen <- "late.png"
	assert.False(t, <-opened, "work started after Close must be refused")
	assert.Error(t, tasks.Context().Err())
}
