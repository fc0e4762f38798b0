// Command processor turns the raw price file into the normalized and
// enriched tables: it runs extraction, normalization with deduplication and
// enrichment, then writes the enriched CSV, the coverage summary and the
// SQLite store the report and web commands read.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"strings"

	"agropulse/internal/config"
	"agropulse/internal/dataprocessing"
	"agropulse/internal/exporter"
	"agropulse/internal/infrastructure"
	"agropulse/internal/storage"
	"agropulse/pkg/contracts/domain"
)

func main() {
	in := flag.String("in", "", "input raw file, .csv or .xlsx (defaults to the configured raw file)")
	taxonomyFile := flag.String("taxonomy", "", "optional taxonomy YAML overriding the built-in classification data")
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
	if *in == "" {
		*in = paths.RawCSV()
	}

	tax := config.DefaultTaxonomy()
	if *taxonomyFile != "" {
		tax, err = config.LoadTaxonomy(*taxonomyFile)
		if err != nil {
			logger.Error("failed to load taxonomy", "error", err, "path", *taxonomyFile)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	raw, err := readRaw(*in)
	if err != nil {
		logger.Error("failed to read raw records", "error", err, "path", *in)
		os.Exit(1)
	}
	logger.InfoContext(ctx, "raw records loaded", "count", len(raw), "path", *in)

	normalizer := dataprocessing.NewNormalizer(logger, tax)
	normalized, coverage := normalizer.Normalize(ctx, raw)

	enricher := dataprocessing.NewEnricher(logger, tax)
	enriched := enricher.Enrich(normalized)

	writer := exporter.NewCSVWriter(logger)
	if err := writer.WriteEnrichedRecords(paths.EnrichedCSV(), enriched); err != nil {
		logger.Error("failed to write enriched table", "error", err)
		os.Exit(1)
	}
	if err := exporter.WriteCoverage(paths.CoverageJSON(), coverage); err != nil {
		logger.Error("failed to write coverage summary", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(paths.DatabaseFile(), logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.ReplaceRecords(ctx, enriched); err != nil {
		logger.Error("failed to store enriched records", "error", err)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "processing completed",
		"input_records", coverage.InputCount,
		"output_records", coverage.OutputCount,
		"price_coverage", coverage.PriceCoverage(),
		"enriched_csv", paths.EnrichedCSV(),
		"database", paths.DatabaseFile(),
	)
}

func readRaw(path string) ([]domain.RawRecord, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return dataprocessing.ReadRawXLSX(path)
	}
	return dataprocessing.ReadRawCSV(path)
}
