// Command rfprep converts a folder of spectrogram images into power_u8.bin and meta.json.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/rfsurface/internal/config"
	"github.com/Faultbox/rfsurface/internal/logger"
	"github.com/Faultbox/rfsurface/internal/prep"
	"github.com/Faultbox/rfsurface/internal/preview"
	"github.com/Faultbox/rfsurface/internal/source"
	"github.com/Faultbox/rfsurface/pkg/rfdata"
)

var (
	flagInput     = flag.String("input", "", "Folder of images to convert (required)")
	flagMaxImages = flag.Int("max-images", 0, "Maximum number of images to stack (default from config, 10)")
	flagPreview   = flag.String("preview", "", "Also write a heatmap of the middle-row time series to this PNG")
)

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	cfg.Validate()

	if *flagInput == "" {
		fmt.Fprintln(os.Stderr, "usage: rfprep --input <dir> [--data <out dir>] [--max-images N] [--preview out.png]")
		os.Exit(2)
	}
	maxImages := cfg.Data.MaxImages
	if *flagMaxImages > 0 {
		maxImages = *flagMaxImages
	}

	if err := run(*flagInput, cfg.Data.Dir, maxImages, *flagPreview); err != nil {
		logger.Error("preparation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(input, output string, maxImages int, previewPath string) error {
	log := logger.Named("prep")
	ds, err := prep.Build(context.Background(), prep.Options{
		InputDir:  input,
		MaxImages: maxImages,
		Log:       log,
	})
	if err != nil {
		return err
	}

	binPath, metaPath, err := rfdata.Write(output, ds)
	if err != nil {
		return err
	}
	log.Info("wrote dataset",
		zap.String("bin", binPath),
		zap.String("meta", metaPath),
		zap.Stringer("shape", ds.Meta.Shape))

	if previewPath == "" {
		return nil
	}
	vol, err := source.NewVolume(ds)
	if err != nil {
		return err
	}
	stack, err := vol.MiddleRow()
	if err != nil {
		return err
	}
	opts := preview.DefaultOptions()
	opts.Title = fmt.Sprintf("row %d of %d", ds.Meta.Shape.Height/2, ds.Meta.Shape.Height)
	opts.YLabel = "image"
	if err := preview.SavePNG(previewPath, stack.Grid(), opts); err != nil {
		return err
	}
	log.Info("wrote preview", zap.String("path", previewPath))
	return nil
}
