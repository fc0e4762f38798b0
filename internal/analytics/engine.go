package analytics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"agropulse/internal/config"
	"agropulse/pkg/contracts/domain"
)

// ErrInsufficientData reports that a query did not leave enough observations
// to fit a model. Callers translate it into a client-facing diagnostic rather
// than a server failure.
var ErrInsufficientData = errors.New("insufficient data")

// Params are the tunable inputs of an analytics run.
type Params struct {
	// Seed drives every randomized model. Identical inputs and seed produce
	// an identical report.
	Seed int64
	// AlertThresholdPct is the day-over-day change percentage above which a
	// variation alert fires.
	AlertThresholdPct float64
	// ForecastHorizon is the number of daily points the forecaster predicts.
	ForecastHorizon int
}

// ParamsFromConfig maps the analytics configuration section onto run params.
func ParamsFromConfig(cfg config.AnalyticsConfig) Params {
	return Params{
		Seed:              cfg.Seed,
		AlertThresholdPct: cfg.AlertThresholdPct,
		ForecastHorizon:   cfg.ForecastHorizon,
	}
}

// Engine orchestrates the analyzers over an enriched price table.
type Engine struct {
	logger *slog.Logger
	params Params
}

// NewEngine creates an Engine with the given parameters.
func NewEngine(logger *slog.Logger, params Params) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if params.AlertThresholdPct <= 0 {
		params.AlertThresholdPct = 20
	}
	if params.ForecastHorizon <= 0 {
		params.ForecastHorizon = 7
	}
	return &Engine{logger: logger, params: params}
}

// Run executes all analyzers concurrently and assembles the report bundle.
// Per-entity shortfalls (a product with too few observations) are skipped
// inside each analyzer; only the whole-table forecast reports insufficiency,
// and that is recorded in the bundle instead of failing the run.
func (e *Engine) Run(ctx context.Context, records []domain.EnrichedRecord, coverage *domain.CoverageStats) (*domain.ReportBundle, error) {
	started := time.Now()
	bundle := &domain.ReportBundle{
		ID:          uuid.New().String(),
		GeneratedAt: started.UTC(),
		Coverage:    coverage,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		bundle.Sentiment = e.MarketSentiment(ctx, records)
		return nil
	})
	g.Go(func() error {
		bundle.Anomalies = e.DetectAnomalies(ctx, records)
		return nil
	})
	g.Go(func() error {
		bundle.Clusters = e.ClusterMarkets(ctx, records)
		return nil
	})
	g.Go(func() error {
		bundle.Elasticity = e.EstimateElasticity(ctx, records)
		return nil
	})
	g.Go(func() error {
		forecast, err := e.Forecast(ctx, records, ForecastQuery{Horizon: e.params.ForecastHorizon})
		if err != nil {
			if errors.Is(err, ErrInsufficientData) {
				e.logger.WarnContext(ctx, "forecast skipped", "error", err)
				return nil
			}
			return err
		}
		bundle.Forecast = forecast
		return nil
	})
	g.Go(func() error {
		bundle.Alerts = e.GenerateAlerts(ctx, records)
		return nil
	})
	g.Go(func() error {
		bundle.Monitoring = e.MonitorPrices(ctx, records)
		return nil
	})
	g.Go(func() error {
		bundle.Portfolio = e.OptimizePortfolio(ctx, records)
		return nil
	})
	g.Go(func() error {
		bundle.Summary = e.SummarizeDataset(ctx, records)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "analytics run completed",
		"report_id", bundle.ID,
		"records", len(records),
		"sentiment_rows", len(bundle.Sentiment),
		"anomalies", len(bundle.Anomalies),
		"clusters", len(bundle.Clusters),
		"alert_products", len(bundle.Alerts),
		"monitored_products", len(bundle.Monitoring),
		"portfolio_products", len(bundle.Portfolio),
		"duration", time.Since(started).String(),
	)
	return bundle, nil
}
