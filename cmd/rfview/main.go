// Command rfview opens the native surface viewer.
package main

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/Faultbox/rfsurface/internal/config"
	"github.com/Faultbox/rfsurface/internal/logger"
	"github.com/Faultbox/rfsurface/internal/source"
)

func init() {
	runtime.LockOSThread()
}

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

	for _, fix := range cfg.Validate() {
		logger.Warn("config adjusted", zap.String("fix", fix))
	}

	data := source.Locate(cfg.Data.Dir, cfg.Data.Endpoint, cfg.Data.MetaFile, cfg.Data.BinFile, cfg.Data.FetchTimeout)
	app, err := NewApp(cfg, data, logger.Named("viewer"))
	if err != nil {
		logger.Error("viewer failed to start", zap.Error(err))
		os.Exit(1)
	}
	defer app.Close()

	// Positional arguments are images or folders to open; otherwise show the sample.
	if args := config.Args(); len(args) > 0 {
		app.Open(args[0])
	} else {
		app.LoadSample()
	}

	if err := app.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
	}
}
