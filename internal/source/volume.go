package source

import (
	"fmt"

	"github.com/Faultbox/rfsurface/internal/grid"
	"github.com/Faultbox/rfsurface/pkg/rfdata"
)

// Volume is a T x H x W power volume normalised to [0,1].
type Volume struct {
	Shape  rfdata.Shape
	Values []float32
}

// NewVolume normalises every byte of ds as byte/255. No resampling is done.
func NewVolume(ds *rfdata.Dataset) (*Volume, error) {
	if err := ds.Validate(); err != nil {
		return nil, decodeErr("volume", err)
	}
	n := ds.Meta.Shape.Len()
	values := make([]float32, n)
	for i, b := range ds.Power[:n] {
		values[i] = float32(b) / 255
	}
	return &Volume{Shape: ds.Meta.Shape, Values: values}, nil
}

// At returns the normalised sample at (t, h, w).
func (v *Volume) At(t, h, w int) float32 {
	return v.Values[v.Shape.Index(t, h, w)]
}

// RowSlices extracts row h of every time step, giving a stack of T rows of width W.
func (v *Volume) RowSlices(h int) (*grid.Stack, error) {
	if h < 0 || h >= v.Shape.Height {
		return nil, inputErr("row slices", fmt.Errorf("%w: %d not in [0,%d)", ErrRowRange, h, v.Shape.Height))
	}
	w := v.Shape.Width
	stack := grid.NewStack(w)
	for t := range v.Shape.Time {
		start := v.Shape.Index(t, h, 0)
		row := make([]float32, w)
		copy(row, v.Values[start:start+w])
		if err := stack.Append(row); err != nil {
			return nil, err
		}
	}
	return stack, nil
}

// MiddleRow extracts row H/2, the standard time-series slice.
func (v *Volume) MiddleRow() (*grid.Stack, error) {
	return v.RowSlices(grid.RowMiddle.Row(v.Shape.Height))
}

// Slices extracts the row chosen by policy.
func (v *Volume) Slices(p grid.RowPolicy) (*grid.Stack, error) {
	return v.RowSlices(p.Row(v.Shape.Height))
}
