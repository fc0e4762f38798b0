// Command report runs the full analytics engine over the stored enriched
// table and writes the consolidated JSON report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"agropulse/internal/analytics"
	"agropulse/internal/config"
	"agropulse/internal/exporter"
	"agropulse/internal/infrastructure"
	"agropulse/internal/storage"
	"agropulse/pkg/contracts/domain"
)

func main() {
	out := flag.String("out", "", "output JSON path (defaults to the configured report file)")
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
		*out = paths.ReportJSON()
	}

	ctx := context.Background()

	store, err := storage.Open(paths.DatabaseFile(), logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	records, err := store.LoadAll(ctx)
	if err != nil {
		logger.Error("failed to load records", "error", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		logger.Error("no stored records, run the processor first")
		os.Exit(1)
	}

	coverage := loadCoverage(paths.CoverageJSON())

	engine := analytics.NewEngine(logger, analytics.ParamsFromConfig(cfg.Analytics))
	bundle, err := engine.Run(ctx, records, coverage)
	if err != nil {
		logger.Error("analytics run failed", "error", err)
		os.Exit(1)
	}

	if err := exporter.WriteReportBundle(*out, bundle); err != nil {
		logger.Error("failed to write report", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "report written",
		"report_id", bundle.ID,
		"output", *out,
	)
}

// loadCoverage reads the processor's coverage summary; a missing file just
// leaves the bundle's coverage section empty.
func loadCoverage(path string) *domain.CoverageStats {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var stats domain.CoverageStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil
	}
	return &stats
}
