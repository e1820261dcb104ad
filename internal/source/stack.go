package source

import (
	"context"
	"image"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/rfsurface/internal/grid"
)

// LoadSingle decodes the first image in files into a luma grid.
func LoadSingle(files []File) (grid.Grid, error) {
	if len(files) == 0 {
		return grid.Grid{}, inputErr("load single", ErrNoFiles)
	}
	images := FilterImages(files)
	if len(images) == 0 {
		return grid.Grid{}, inputErr("load single", ErrNoValidFiles)
	}
	img, err := DecodeImage(images[0])
	if err != nil {
		return grid.Grid{}, err
	}
	return FromImage(img)
}

// LoadImages decodes files concurrently. The result follows input order.
func LoadImages(ctx context.Context, files []File) ([]image.Image, error) {
	out := make([]image.Image, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := DecodeImage(f)
			if err != nil {
				return err
			}
			out[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadStack decodes every image file, resizes each to the first image's size
// and extracts one row per image as chosen by policy. Row i of the stack is
// file i regardless of decode completion order.
func LoadStack(ctx context.Context, files []File, policy grid.RowPolicy) (*grid.Stack, error) {
	if len(files) == 0 {
		return nil, inputErr("load stack", ErrNoFiles)
	}
	valid := FilterImages(files)
	if len(valid) == 0 {
		return nil, inputErr("load stack", ErrNoValidFiles)
	}

	images, err := LoadImages(ctx, valid)
	if err != nil {
		return nil, err
	}

	ref := images[0].Bounds()
	w, h := ref.Dx(), ref.Dy()
	y := policy.Row(h)

	rows := make([][]float32, len(images))
	g, ctx := errgroup.WithContext(ctx)
	for i, img := range images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, err := RowFromImage(Resize(img, w, h), y)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stack := grid.NewStack(w)
	for _, row := range rows {
		if err := stack.Append(row); err != nil {
			return nil, decodeErr("load stack", err)
		}
	}
	return stack, nil
}
