package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agropulse/pkg/contracts/domain"
)

func forecastFixture() []domain.EnrichedRecord {
	var records []domain.EnrichedRecord
	for i := 0; i < 30; i++ {
		records = append(records, obsRecord("Tomate Ronde", "Rungis", i, 2.5+0.02*float64(i)))
	}
	for i := 0; i < 12; i++ {
		records = append(records, obsRecord("Pomme Golden", "Lyon", i, 1.8))
	}
	return records
}

func TestForecast(t *testing.T) {
	e := testEngine()

	t.Run("too few rows is a diagnostic error", func(t *testing.T) {
		records := seriesRecords("Tomate", "Rungis", []float64{2, 3, 2, 3, 2})
		_, err := e.Forecast(context.Background(), records, ForecastQuery{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("unknown product filter is a diagnostic error", func(t *testing.T) {
		_, err := e.Forecast(context.Background(), forecastFixture(), ForecastQuery{Product: "Ananas"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("fits on the filtered rows", func(t *testing.T) {
		report, err := e.Forecast(context.Background(), forecastFixture(), ForecastQuery{Product: "Tomate Ronde"})
		require.NoError(t, err)

		assert.Equal(t, "Tomate Ronde", report.Product)
		assert.Equal(t, 30, report.SampleSize)
		assert.GreaterOrEqual(t, report.MAE, 0.0)
		require.Len(t, report.Importances, len(forecastFeatureNames))

		total := 0.0
		for _, imp := range report.Importances {
			assert.GreaterOrEqual(t, imp.Importance, 0.0)
			total += imp.Importance
		}
		assert.InDelta(t, 1.0, total, 0.001)
	})

	t.Run("product filter is case insensitive", func(t *testing.T) {
		report, err := e.Forecast(context.Background(), forecastFixture(), ForecastQuery{Product: "tomate ronde"})
		require.NoError(t, err)
		assert.Equal(t, 30, report.SampleSize)
	})

	t.Run("horizon points follow the last observed date", func(t *testing.T) {
		report, err := e.Forecast(context.Background(), forecastFixture(), ForecastQuery{Product: "Tomate Ronde", Horizon: 5})
		require.NoError(t, err)

		require.Len(t, report.Horizon, 5)
		// Last observation is 2025-03-30; predictions start the next day.
		assert.Equal(t, "2025-03-31", report.Horizon[0].Date)
		assert.Equal(t, "2025-04-04", report.Horizon[4].Date)
		for _, point := range report.Horizon {
			assert.Greater(t, point.PredictedPrice, 0.0)
		}
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		first, err := e.Forecast(context.Background(), forecastFixture(), ForecastQuery{Horizon: 3})
		require.NoError(t, err)
		second, err := testEngine().Forecast(context.Background(), forecastFixture(), ForecastQuery{Horizon: 3})
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}
