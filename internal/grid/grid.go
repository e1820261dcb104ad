// Package grid holds normalised 2D scalar grids and the nearest-neighbour sampler.
package grid

import (
	"errors"
	"fmt"
)

// Grid errors.
var (
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	ErrLengthMismatch    = errors.New("grid length does not match dimensions")
	ErrRaggedStack       = errors.New("stack rows differ in width")
)

// Dimensions is the extent of a grid. In time-series mode Height is the time axis.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Len returns Width*Height.
func (d Dimensions) Len() int {
	return d.Width * d.Height
}

// Valid reports whether both extents are positive.
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// String returns "WxH".
func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Grid is a row-major grid of values in [0,1].
type Grid struct {
	Dims   Dimensions
	Values []float32
}

// New wraps values as a grid, clamping every value to [0,1].
// The slice is modified in place.
func New(dims Dimensions, values []float32) (Grid, error) {
	if !dims.Valid() {
		return Grid{}, fmt.Errorf("%w: %s", ErrInvalidDimensions, dims)
	}
	if len(values) != dims.Len() {
		return Grid{}, fmt.Errorf("%w: %s needs %d values, got %d", ErrLengthMismatch, dims, dims.Len(), len(values))
	}
	for i, v := range values {
		values[i] = Clamp01(v)
	}
	return Grid{Dims: dims, Values: values}, nil
}

// Filled returns a grid with every cell set to v.
func Filled(dims Dimensions, v float32) Grid {
	values := make([]float32, dims.Len())
	v = Clamp01(v)
	for i := range values {
		values[i] = v
	}
	return Grid{Dims: dims, Values: values}
}

// At returns the value at column x, row z.
func (g Grid) At(x, z int) float32 {
	return g.Values[z*g.Dims.Width+x]
}

// Row returns a copy of row z.
func (g Grid) Row(z int) []float32 {
	row := make([]float32, g.Dims.Width)
	copy(row, g.Values[z*g.Dims.Width:(z+1)*g.Dims.Width])
	return row
}

// Clamp01 clamps v to [0,1]. NaN maps to 0.
func Clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Stack is an ordered sequence of equal-width rows, one per time step.
type Stack struct {
	Width int
	Rows  [][]float32
}

// NewStack creates an empty stack of the given row width.
func NewStack(width int) *Stack {
	return &Stack{Width: width}
}

// Append adds a row at the end of the time axis.
func (s *Stack) Append(row []float32) error {
	if len(row) != s.Width {
		return fmt.Errorf("%w: expected %d, got %d", ErrRaggedStack, s.Width, len(row))
	}
	for i, v := range row {
		row[i] = Clamp01(v)
	}
	s.Rows = append(s.Rows, row)
	return nil
}

// Len returns the number of time steps.
func (s *Stack) Len() int {
	return len(s.Rows)
}

// Dims returns the stack extent with Height = number of time steps.
func (s *Stack) Dims() Dimensions {
	return Dimensions{Width: s.Width, Height: len(s.Rows)}
}

// Grid flattens the stack into a W x T grid, time step t becoming row t.
func (s *Stack) Grid() Grid {
	dims := s.Dims()
	values := make([]float32, 0, dims.Len())
	for _, row := range s.Rows {
		values = append(values, row...)
	}
	return Grid{Dims: dims, Values: values}
}
