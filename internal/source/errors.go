// Package source turns raw power buffers and decoded images into normalised grids.
package source

import (
	"errors"
	"fmt"
)

// Kind classifies source failures.
type Kind int

// Failure kinds.
const (
	// KindInput covers missing selections, wrong media types and bad parameters.
	KindInput Kind = iota + 1
	// KindDecode covers images or metadata that cannot be decoded.
	KindDecode
	// KindFetch covers failed requests to the data endpoint.
	KindFetch
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindDecode:
		return "decode"
	case KindFetch:
		return "fetch"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a classified source failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries a source Error of kind k.
func IsKind(err error, k Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == k
}

func inputErr(op string, err error) error {
	return &Error{Kind: KindInput, Op: op, Err: err}
}

func decodeErr(op string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

func fetchErr(op string, err error) error {
	return &Error{Kind: KindFetch, Op: op, Err: err}
}

// Input errors.
var (
	ErrNoFiles      = errors.New("no files selected")
	ErrNotImage     = errors.New("not an image")
	ErrNoValidFiles = errors.New("no valid image files after filtering")
	ErrEmptyImage   = errors.New("image has no pixels")
	ErrRowRange     = errors.New("row out of range")
)
