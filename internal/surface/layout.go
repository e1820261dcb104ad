package surface

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Faultbox/rfsurface/internal/grid"
)

// Mode selects how input images become a grid.
type Mode int

// Surface modes.
const (
	ModeSingle Mode = iota
	ModeMulti
)

func (m Mode) String() string {
	if m == ModeMulti {
		return "multi"
	}
	return "single"
}

// ParseMode parses "single" or "multi". Empty input yields ModeSingle.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return ModeSingle, nil
	case "multi":
		return ModeMulti, nil
	default:
		return ModeSingle, fmt.Errorf("unknown mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	v, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Layout describes how mesh vertices map back to data coordinates.
// It is implemented only by SingleLayout and MultiLayout.
type Layout interface {
	Mode() Mode
	// Dims returns the vertex grid extent of the mesh.
	Dims() grid.Dimensions
	sealed()
}

// SingleLayout is a downsampled image surface. Width and Height are the source size.
type SingleLayout struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	Downsample int `json:"downsample"`
}

// Mode returns ModeSingle.
func (SingleLayout) Mode() Mode { return ModeSingle }

// Dims returns the sampled extent.
func (l SingleLayout) Dims() grid.Dimensions {
	return grid.SampleDims(l.Width, l.Height, l.Downsample)
}

func (SingleLayout) sealed() {}

// MultiLayout is a time series with one row per time step.
type MultiLayout struct {
	Width int `json:"width"`
	Time  int `json:"time"`
}

// Mode returns ModeMulti.
func (MultiLayout) Mode() Mode { return ModeMulti }

// Dims returns Width x Time.
func (l MultiLayout) Dims() grid.Dimensions {
	return grid.Dimensions{Width: l.Width, Height: l.Time}
}

func (MultiLayout) sealed() {}

type layoutJSON struct {
	Mode       Mode `json:"mode"`
	Width      int  `json:"width"`
	Height     int  `json:"height,omitempty"`
	Downsample int  `json:"downsample,omitempty"`
	Time       int  `json:"time,omitempty"`
}

// MarshalLayout encodes l with a "mode" discriminator.
func MarshalLayout(l Layout) ([]byte, error) {
	switch l := l.(type) {
	case SingleLayout:
		return json.Marshal(layoutJSON{Mode: ModeSingle, Width: l.Width, Height: l.Height, Downsample: l.Downsample})
	case MultiLayout:
		return json.Marshal(layoutJSON{Mode: ModeMulti, Width: l.Width, Time: l.Time})
	default:
		return nil, fmt.Errorf("unknown layout %T", l)
	}
}

// UnmarshalLayout decodes a layout written by MarshalLayout.
func UnmarshalLayout(data []byte) (Layout, error) {
	var v layoutJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if v.Mode == ModeMulti {
		return MultiLayout{Width: v.Width, Time: v.Time}, nil
	}
	return SingleLayout{Width: v.Width, Height: v.Height, Downsample: v.Downsample}, nil
}

// MarshalJSON includes the layout alongside the mesh.
func (s *Surface) MarshalJSON() ([]byte, error) {
	layout, err := MarshalLayout(s.Layout)
	if err != nil {
		return nil, err
	}
	type plain Surface
	return json.Marshal(struct {
		*plain
		Layout json.RawMessage `json:"layout"`
	}{(*plain)(s), layout})
}
