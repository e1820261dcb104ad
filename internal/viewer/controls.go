// Package viewer holds the window-independent parts of the native viewer:
// key actions, the window title and the hand-off queue to the GL thread.
package viewer

import (
	"fmt"
	"strings"

	"github.com/Faultbox/rfsurface/internal/explorer"
	"github.com/Faultbox/rfsurface/internal/picking"
	"github.com/Faultbox/rfsurface/internal/surface"
)

// Action is a user command bound to a key.
type Action int

const (
	ActionNone Action = iota
	ActionToggleSurface
	ActionToggleAxes
	ActionToggleLabels
	ActionToggleMode
	ActionDownsampleUp
	ActionDownsampleDown
	ActionCycleRow
	ActionOpenFile
	ActionOpenFolder
	ActionLoadSample
	ActionScreenshot
	ActionResetCamera
	ActionSaveSettings
	ActionQuit
)

// MaxDownsample caps the downsample factor reachable from the keyboard.
const MaxDownsample = 32

// ApplyLayers returns l with the toggled flag flipped.
func ApplyLayers(l surface.Layers, a Action) (surface.Layers, bool) {
	switch a {
	case ActionToggleSurface:
		l.Surface = !l.Surface
	case ActionToggleAxes:
		l.Axes = !l.Axes
	case ActionToggleLabels:
		l.Labels = !l.Labels
	default:
		return l, false
	}
	return l, true
}

// ApplyParams returns p changed by a. The flag reports whether the surface needs
// rebuilding: downsample only matters in single mode and row policy only in multi mode.
func ApplyParams(p explorer.Params, a Action) (explorer.Params, bool) {
	switch a {
	case ActionToggleMode:
		if p.Mode == surface.ModeSingle {
			p.Mode = surface.ModeMulti
		} else {
			p.Mode = surface.ModeSingle
		}
		return p, true
	case ActionDownsampleUp:
		if p.Downsample >= MaxDownsample {
			return p, false
		}
		p.Downsample++
		return p, p.Mode == surface.ModeSingle
	case ActionDownsampleDown:
		if p.Downsample <= 1 {
			return p, false
		}
		p.Downsample--
		return p, p.Mode == surface.ModeSingle
	case ActionCycleRow:
		p.Row = p.Row.Next()
		return p, p.Mode == surface.ModeMulti
	default:
		return p, false
	}
}

// Title formats the window title from the explorer state.
func Title(st explorer.Status, p explorer.Params, r picking.Readout) string {
	var b strings.Builder
	if p.Mode == surface.ModeSingle {
		fmt.Fprintf(&b, "rfsurface [single ds=%d] ", p.Downsample)
	} else {
		fmt.Fprintf(&b, "rfsurface [multi row=%s] ", p.Row)
	}
	switch {
	case st.Busy:
		b.WriteString("working: ")
	case st.Error:
		b.WriteString("error: ")
	}
	b.WriteString(st.Text)
	b.WriteString(" | ")
	b.WriteString(r.String())
	return b.String()
}
