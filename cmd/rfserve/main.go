// Command rfserve serves the surface explorer over HTTP and websocket.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/rfsurface/internal/config"
	"github.com/Faultbox/rfsurface/internal/explorer"
	"github.com/Faultbox/rfsurface/internal/logger"
	"github.com/Faultbox/rfsurface/internal/server"
	"github.com/Faultbox/rfsurface/internal/source"
	"github.com/Faultbox/rfsurface/internal/surface"
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

	for _, fix := range cfg.Validate() {
		logger.Warn("config adjusted", zap.String("fix", fix))
	}

	if err := run(cfg); err != nil {
		logger.Error("server failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.Named("server")

	hub := server.NewHub(log.Named("ws"))
	state := surface.NewState(surface.Hooks{Installed: hub.SurfaceInstalled}, logger.Named("state"))
	state.SetLayers(cfg.Layers)

	ex := explorer.New(explorer.Options{
		State: state,
		Data:  source.Locate(cfg.Data.Dir, cfg.Data.Endpoint, cfg.Data.MetaFile, cfg.Data.BinFile, cfg.Data.FetchTimeout),
		Log:   logger.Named("explorer"),
		Params: explorer.Params{
			Mode:       cfg.Surface.SurfaceMode(),
			Downsample: cfg.Surface.Downsample,
			Row:        cfg.Surface.Policy(),
		},
	})

	srv := server.New(server.Options{
		Explorer:    ex,
		Hub:         hub,
		DataDir:     cfg.Data.Dir,
		MaxUploadMB: cfg.Server.MaxUploadMB,
		Log:         log,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.LoggingMiddleware(log, srv.ServeMux()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("data", cfg.Data.Dir))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
