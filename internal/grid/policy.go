package grid

import (
	"fmt"
	"strings"
)

// RowPolicy selects which image row represents a time step.
type RowPolicy int

// Row selection policies.
const (
	RowMiddle RowPolicy = iota
	RowTop
	RowBottom
)

// String returns the policy name.
func (p RowPolicy) String() string {
	switch p {
	case RowTop:
		return "top"
	case RowBottom:
		return "bottom"
	default:
		return "middle"
	}
}

// Row returns the row index chosen for an image of height h.
func (p RowPolicy) Row(h int) int {
	if h <= 0 {
		return 0
	}
	switch p {
	case RowTop:
		return 0
	case RowBottom:
		return h - 1
	default:
		return h / 2
	}
}

// ParseRowPolicy parses "top", "middle" or "bottom". Empty input yields RowMiddle.
func ParseRowPolicy(s string) (RowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "middle":
		return RowMiddle, nil
	case "top":
		return RowTop, nil
	case "bottom":
		return RowBottom, nil
	default:
		return RowMiddle, fmt.Errorf("unknown row policy %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p RowPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *RowPolicy) UnmarshalText(text []byte) error {
	v, err := ParseRowPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Next cycles top -> middle -> bottom -> top.
func (p RowPolicy) Next() RowPolicy {
	switch p {
	case RowTop:
		return RowMiddle
	case RowMiddle:
		return RowBottom
	default:
		return RowTop
	}
}
