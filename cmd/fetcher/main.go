// Command fetcher collects raw price records from the source site (or the
// demo generator when scraping fails) and writes them to the raw CSV file for
// the processor.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agropulse/internal/config"
	"agropulse/internal/dataprocessing"
	"agropulse/internal/exporter"
	"agropulse/internal/fetcher"
	"agropulse/internal/infrastructure"
	"agropulse/pkg/contracts/domain"
)

func main() {
	out := flag.String("out", "", "output CSV path (defaults to the configured raw file)")
	demo := flag.Bool("demo", false, "skip scraping and generate demo data")
	days := flag.Int("days", 30, "number of days of demo data")
	flag.Parse()

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
	if *out == "" {
		*out = paths.RawCSV()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var records []domain.RawRecord
	if *demo {
		logger.Info("generating demo data", "days", *days, "seed", cfg.Analytics.Seed)
		records = dataprocessing.GenerateDemoRecords(cfg.Analytics.Seed, *days, time.Now())
	} else {
		f := fetcher.New(logger, cfg.Fetch, cfg.Analytics.Seed)
		records, err = f.Fetch(ctx)
		if err != nil {
			logger.Error("fetch failed", "error", err)
			os.Exit(1)
		}
	}
	if len(records) == 0 {
		logger.Error("no records collected")
		os.Exit(1)
	}

	writer := exporter.NewCSVWriter(logger)
	if err := writer.WriteRawRecords(*out, records); err != nil {
		logger.Error("failed to write raw records", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "fetch run completed",
		"records", len(records),
		"output", *out,
	)
}
