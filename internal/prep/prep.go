// Package prep turns a folder of spectrogram images into the binary sample dataset.
package prep

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/rfsurface/internal/source"
	"github.com/Faultbox/rfsurface/pkg/rfdata"
)

// DefaultMaxImages is the number of time steps kept when none is given.
const DefaultMaxImages = 10

// Preparation errors.
var (
	ErrNoFiles      = errors.New("no files found in input directory")
	ErrNoValidImage = errors.New("no valid image files could be opened")
)

// Options control Build.
type Options struct {
	InputDir  string
	MaxImages int
	Log       *zap.Logger
}

// Build walks InputDir in sorted order, sizes every image to the first decodable one,
// converts them to 8-bit gray and stacks at most MaxImages of them along time.
// Files that cannot be read or decoded are skipped.
func Build(ctx context.Context, opts Options) (*rfdata.Dataset, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	maxImages := opts.MaxImages
	if maxImages < 1 {
		maxImages = DefaultMaxImages
	}

	info, err := os.Stat(opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("input directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input %s is not a directory", opts.InputDir)
	}
	paths, err := source.ListFiles(opts.InputDir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	var (
		w, h      int
		reference string
		slices    [][]byte
		used      []string
	)
	for _, p := range paths {
		if len(slices) >= maxImages {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := decode(p)
		if err != nil {
			log.Debug("skipping file", zap.String("path", p), zap.Error(err))
			continue
		}
		if reference == "" {
			b := img.Bounds()
			w, h = b.Dx(), b.Dy()
			reference = filepath.Base(p)
			log.Info("reference image", zap.String("name", reference), zap.Int("width", w), zap.Int("height", h))
		}
		slices = append(slices, source.ResizeGray(img, w, h).Pix)
		used = append(used, filepath.Base(p))
	}
	if len(slices) == 0 {
		return nil, ErrNoValidImage
	}

	shape := rfdata.Shape{Time: len(slices), Height: h, Width: w}
	power := make([]byte, 0, shape.Len())
	for _, s := range slices {
		power = append(power, s...)
	}

	meta := rfdata.NewMeta(shape)
	meta.Source = &rfdata.SourceInfo{
		InputDir:       opts.InputDir,
		ReferenceImage: reference,
		UsedImages:     used,
	}
	log.Info("volume assembled", zap.Stringer("shape", shape), zap.Int("images", len(used)))
	return rfdata.New(meta, power)
}

func decode(path string) (image.Image, error) {
	f, err := source.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return source.DecodeImage(f)
}
