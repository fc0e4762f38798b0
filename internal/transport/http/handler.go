package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"agropulse/internal/analytics"
	apierrors "agropulse/internal/errors"
	"agropulse/pkg/contracts/domain"
)

// DataSource provides the stored enriched records.
type DataSource interface {
	LoadAll(ctx context.Context) ([]domain.EnrichedRecord, error)
	LoadByProduct(ctx context.Context, productClean string) ([]domain.EnrichedRecord, error)
}

// Handler serves the data and analytics endpoints.
type Handler struct {
	source       DataSource
	engine       *analytics.Engine
	coveragePath string
	logger       *slog.Logger
}

// NewHandler creates a Handler. coveragePath points at the coverage summary
// the processor wrote; an empty path disables the coverage endpoint.
func NewHandler(source DataSource, engine *analytics.Engine, coveragePath string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		source:       source,
		engine:       engine,
		coveragePath: coveragePath,
		logger:       logger.With("component", "api_handler"),
	}
}

// Routes returns the API routes.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/health", h.GetHealth)
	r.Get("/records", h.GetRecords)
	r.Get("/coverage", h.GetCoverage)
	r.Get("/report", h.GetReport)

	r.Route("/analytics", func(r chi.Router) {
		r.Get("/forecast", h.GetForecast)
		r.Get("/{analyzer}", h.GetAnalyzer)
	})

	return r
}

// GetHealth reports service liveness.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "healthy"})
}

// GetRecords lists stored records, optionally filtered by product.
func (h *Handler) GetRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		records []domain.EnrichedRecord
		err     error
	)
	if product := r.URL.Query().Get("product"); product != "" {
		records, err = h.source.LoadByProduct(ctx, product)
	} else {
		records, err = h.source.LoadAll(ctx)
	}
	if err != nil {
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}

	render.JSON(w, r, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

// GetCoverage serves the extraction coverage summary of the last processing
// run.
func (h *Handler) GetCoverage(w http.ResponseWriter, r *http.Request) {
	if h.coveragePath == "" {
		h.renderError(w, r, apierrors.NotFoundError("coverage report"))
		return
	}
	data, err := os.ReadFile(h.coveragePath)
	if err != nil {
		h.renderError(w, r, apierrors.NotFoundError("coverage report"))
		return
	}

	var stats domain.CoverageStats
	if err := json.Unmarshal(data, &stats); err != nil {
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}
	render.JSON(w, r, stats)
}

// GetAnalyzer runs a single analyzer over the stored table.
func (h *Handler) GetAnalyzer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	analyzer := chi.URLParam(r, "analyzer")

	records, err := h.source.LoadAll(ctx)
	if err != nil {
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}

	switch analyzer {
	case "sentiment":
		render.JSON(w, r, h.engine.MarketSentiment(ctx, records))
	case "anomalies":
		render.JSON(w, r, h.engine.DetectAnomalies(ctx, records))
	case "clusters":
		render.JSON(w, r, h.engine.ClusterMarkets(ctx, records))
	case "elasticity":
		render.JSON(w, r, h.engine.EstimateElasticity(ctx, records))
	case "alerts":
		render.JSON(w, r, h.engine.GenerateAlerts(ctx, records))
	case "monitoring":
		render.JSON(w, r, h.engine.MonitorPrices(ctx, records))
	case "portfolio":
		render.JSON(w, r, h.engine.OptimizePortfolio(ctx, records))
	case "summary":
		render.JSON(w, r, h.engine.SummarizeDataset(ctx, records))
	default:
		h.renderError(w, r, apierrors.NotFoundError("analyzer"))
	}
}

// GetForecast fits the price model for free or filtered by product, with an
// optional horizon of daily predictions.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := analytics.ForecastQuery{
		Product: r.URL.Query().Get("product"),
		Market:  r.URL.Query().Get("market"),
		Origin:  r.URL.Query().Get("origin"),
	}
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		horizon, err := strconv.Atoi(raw)
		if err != nil || horizon < 1 || horizon > 90 {
			h.renderError(w, r, apierrors.InvalidParameterError("horizon", "horizon must be an integer between 1 and 90"))
			return
		}
		query.Horizon = horizon
	}

	records, err := h.source.LoadAll(ctx)
	if err != nil {
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}

	report, err := h.engine.Forecast(ctx, records, query)
	if err != nil {
		if errors.Is(err, analytics.ErrInsufficientData) {
			h.renderError(w, r, apierrors.InsufficientDataError(err))
			return
		}
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}
	render.JSON(w, r, report)
}

// GetReport runs the full analytics engine and serves the bundle.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := h.source.LoadAll(ctx)
	if err != nil {
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}

	bundle, err := h.engine.Run(ctx, records, nil)
	if err != nil {
		h.renderError(w, r, apierrors.InternalError(err))
		return
	}
	render.JSON(w, r, bundle)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"error_code", apiErr.ErrorCode,
			"details", apiErr.Details,
		)
	}
	if err := render.Render(w, r, apiErr); err != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}
