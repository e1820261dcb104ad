// Package rfdata reads and writes preprocessed RF power datasets.
//
// A dataset is a directory holding two files: meta.json describing the
// volume shape and power_u8.bin holding one unsigned byte per sample in
// row-major order, index = t*W*H + h*W + w.
package rfdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Default file names inside a dataset directory.
const (
	MetaFile  = "meta.json"
	PowerFile = "power_u8.bin"
)

// Dataset errors.
var (
	ErrInvalidShape     = errors.New("invalid dataset shape")
	ErrTruncatedData    = errors.New("truncated power data")
	ErrUnsupportedDType = errors.New("unsupported dtype")
)

// Shape is the extent of the power volume.
type Shape struct {
	Time   int `json:"time"`
	Height int `json:"height"`
	Width  int `json:"width"`
}

// Len returns the number of samples in the volume.
func (s Shape) Len() int {
	return s.Time * s.Height * s.Width
}

// Valid reports whether every extent is positive.
func (s Shape) Valid() bool {
	return s.Time > 0 && s.Height > 0 && s.Width > 0
}

// String returns the shape as "TxHxW".
func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s.Time, s.Height, s.Width)
}

// Index returns the flat offset of sample (t, h, w).
func (s Shape) Index(t, h, w int) int {
	return t*s.Width*s.Height + h*s.Width + w
}

// SourceInfo records where the samples came from.
type SourceInfo struct {
	InputDir       string   `json:"input_dir,omitempty"`
	ReferenceImage string   `json:"reference_image,omitempty"`
	UsedImages     []string `json:"used_images,omitempty"`
}

// Axes documents the meaning of each axis.
type Axes struct {
	X string `json:"x"`
	Z string `json:"z"`
	Y string `json:"y"`
}

// DefaultAxes returns the axis labels written by the preparation tool.
func DefaultAxes() Axes {
	return Axes{
		X: "frequency_bins (image width)",
		Z: "time (image index + row index)",
		Y: "power (pixel intensity)",
	}
}

// Meta is the content of meta.json.
type Meta struct {
	Shape      Shape       `json:"shape"`
	DType      string      `json:"dtype,omitempty"`
	ValueRange [2]int      `json:"value_range"`
	Source     *SourceInfo `json:"source,omitempty"`
	Axes       *Axes       `json:"axes,omitempty"`
}

// NewMeta returns metadata for a uint8 volume of the given shape.
func NewMeta(shape Shape) Meta {
	axes := DefaultAxes()
	return Meta{
		Shape:      shape,
		DType:      "uint8",
		ValueRange: [2]int{0, 255},
		Axes:       &axes,
	}
}

// ParseMeta decodes meta.json content.
func ParseMeta(data []byte) (*Meta, error) {
	var m Meta
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing meta: %w", err)
	}
	if !m.Shape.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidShape, m.Shape)
	}
	if m.DType != "" && m.DType != "uint8" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDType, m.DType)
	}
	return &m, nil
}

// Dataset is a power volume with its metadata.
type Dataset struct {
	Meta  Meta
	Power []byte
}

// New validates power against meta and returns a dataset.
func New(meta Meta, power []byte) (*Dataset, error) {
	ds := &Dataset{Meta: meta, Power: power}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// Validate checks the buffer length against the declared shape.
func (d *Dataset) Validate() error {
	if !d.Meta.Shape.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidShape, d.Meta.Shape)
	}
	want := d.Meta.Shape.Len()
	if len(d.Power) < want {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrTruncatedData, want, len(d.Power))
	}
	return nil
}

// At returns the raw sample at (t, h, w).
func (d *Dataset) At(t, h, w int) byte {
	return d.Power[d.Meta.Shape.Index(t, h, w)]
}

// Load reads meta.json and power_u8.bin from dir.
func Load(dir string) (*Dataset, error) {
	metaData, err := os.ReadFile(filepath.Join(dir, MetaFile))
	if err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	meta, err := ParseMeta(metaData)
	if err != nil {
		return nil, err
	}

	power, err := os.ReadFile(filepath.Join(dir, PowerFile))
	if err != nil {
		return nil, fmt.Errorf("reading power data: %w", err)
	}
	return New(*meta, power)
}

// Write stores the dataset into dir, creating it if needed.
// It returns the paths of the binary and metadata files.
func Write(dir string, d *Dataset) (binPath, metaPath string, err error) {
	if err := d.Validate(); err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("creating output dir: %w", err)
	}

	binPath = filepath.Join(dir, PowerFile)
	if err := os.WriteFile(binPath, d.Power[:d.Meta.Shape.Len()], 0644); err != nil {
		return "", "", fmt.Errorf("writing power data: %w", err)
	}

	data, err := json.MarshalIndent(d.Meta, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("encoding meta: %w", err)
	}
	metaPath = filepath.Join(dir, MetaFile)
	if err := os.WriteFile(metaPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("writing meta: %w", err)
	}
	return binPath, metaPath, nil
}
