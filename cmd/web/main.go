// Command web serves the read-only JSON API over the stored enriched table.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"agropulse/internal/analytics"
	"agropulse/internal/config"
	"agropulse/internal/infrastructure"
	"agropulse/internal/storage"
	transporthttp "agropulse/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		logger.Error("failed to prepare data directories", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(paths.DatabaseFile(), logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	engine := analytics.NewEngine(logger, analytics.ParamsFromConfig(cfg.Analytics))
	handler := transporthttp.NewHandler(store, engine, paths.CoverageJSON(), logger)
	server := transporthttp.NewServer(cfg.Server, handler, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown failed", "error", err)
			os.Exit(1)
		}
	}
}
