package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agropulse/pkg/contracts/domain"
)

func testEngine() *Engine {
	return NewEngine(nil, Params{Seed: 42, AlertThresholdPct: 20, ForecastHorizon: 7})
}

// obsRecord builds an enriched record with a price and a date offset in days
// from a fixed origin.
func obsRecord(product, market string, dayOffset int, price float64) domain.EnrichedRecord {
	date := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, dayOffset)
	return domain.EnrichedRecord{
		NormalizedRecord: domain.NormalizedRecord{
			ProductClean: product,
			MarketClean:  market,
			Date:         &date,
			Price:        &price,
			Origin:       "FRANCE",
			Quality:      "CAT.I",
		},
		Month:     int(date.Month()),
		Year:      date.Year(),
		Quarter:   (int(date.Month())-1)/3 + 1,
		DayOfWeek: int(date.Weekday()),
		Season:    domain.SeasonSpring,
	}
}

func seriesRecords(product, market string, series []float64) []domain.EnrichedRecord {
	records := make([]domain.EnrichedRecord, len(series))
	for i, price := range series {
		records[i] = obsRecord(product, market, i, price)
	}
	return records
}

func TestMarketSentiment(t *testing.T) {
	e := testEngine()

	t.Run("one row per product", func(t *testing.T) {
		records := seriesRecords("Tomate Ronde", "Rungis", []float64{2.5, 2.6, 2.4, 2.7})
		rows := e.MarketSentiment(context.Background(), records)

		require.Len(t, rows, 1)
		row := rows[0]
		assert.Equal(t, "Tomate Ronde", row.Product)
		assert.Equal(t, 4, row.Observations)
		assert.GreaterOrEqual(t, row.Score, 0.0)
		assert.LessOrEqual(t, row.Score, 100.0)
		assert.NotEmpty(t, row.Recommendation)
	})

	t.Run("constant series has no trend and no volatility", func(t *testing.T) {
		records := seriesRecords("Pomme", "Rungis", []float64{3, 3, 3, 3, 3, 3})
		rows := e.MarketSentiment(context.Background(), records)

		require.Len(t, rows, 1)
		assert.Zero(t, rows[0].Trend)
		assert.Zero(t, rows[0].Volatility)
		assert.InDelta(t, 50+5*(6.0/30.0), rows[0].Score, 0.001)
	})

	t.Run("single observation still scores", func(t *testing.T) {
		records := seriesRecords("Poire", "Rungis", []float64{4.2})
		rows := e.MarketSentiment(context.Background(), records)

		require.Len(t, rows, 1)
		assert.Zero(t, rows[0].Trend)
		assert.Equal(t, 1, rows[0].Observations)
	})

	t.Run("unpriced records are ignored", func(t *testing.T) {
		rows := e.MarketSentiment(context.Background(), []domain.EnrichedRecord{
			{NormalizedRecord: domain.NormalizedRecord{ProductClean: "Chou"}},
		})
		assert.Empty(t, rows)
	})
}

func TestDetectAnomalies(t *testing.T) {
	e := testEngine()

	t.Run("below minimum observations nothing is flagged", func(t *testing.T) {
		records := seriesRecords("Tomate", "Rungis", []float64{2, 3, 2, 3, 2, 3, 2, 3, 2})
		assert.Empty(t, e.DetectAnomalies(context.Background(), records))
	})

	t.Run("flags about a tenth of a large batch", func(t *testing.T) {
		series := make([]float64, 50)
		for i := range series {
			series[i] = 2.5 + 0.1*float64(i%5)
		}
		series[10] = 25.0 // spike
		records := seriesRecords("Tomate", "Rungis", series)

		rows := e.DetectAnomalies(context.Background(), records)
		require.NotEmpty(t, rows)
		assert.LessOrEqual(t, len(rows), 5)

		found := false
		for _, row := range rows {
			if row.Price == 25.0 {
				found = true
				assert.Equal(t, domain.AnomalyHighPrice, row.Reason)
			}
		}
		assert.True(t, found, "the spike must be among the flagged rows")
	})

	t.Run("deterministic for a fixed seed", func(t *testing.T) {
		series := make([]float64, 40)
		for i := range series {
			series[i] = 1.5 + 0.05*float64(i%7)
		}
		records := seriesRecords("Carotte", "Rungis", series)

		first := e.DetectAnomalies(context.Background(), records)
		second := testEngine().DetectAnomalies(context.Background(), records)
		assert.Equal(t, first, second)
	})
}

func TestClassifyAnomaly(t *testing.T) {
	assert.Equal(t, domain.AnomalyHighPrice, classifyAnomaly(10, 2, 1))
	assert.Equal(t, domain.AnomalyLowPrice, classifyAnomaly(-1, 2, 1))
	assert.Equal(t, domain.AnomalyUnusualPattern, classifyAnomaly(2.5, 2, 1))
}

func TestClusterMarkets(t *testing.T) {
	e := testEngine()

	var records []domain.EnrichedRecord
	// Expensive low-volume market, cheap high-volume market, and two in
	// between with differing product mixes.
	for i := 0; i < 5; i++ {
		records = append(records, obsRecord("Truffe", "Marche Haut", i, 30+float64(i)))
	}
	for i := 0; i < 40; i++ {
		records = append(records, obsRecord("Pomme", "Marche Volume", i, 1.5))
	}
	products := []string{"Tomate", "Pomme", "Poire", "Carotte", "Chou"}
	for i := 0; i < 15; i++ {
		records = append(records, obsRecord(products[i%len(products)], "Marche Divers", i, 3+0.2*float64(i%3)))
	}
	for i := 0; i < 10; i++ {
		price := 2.0
		if i%2 == 0 {
			price = 9.0
		}
		records = append(records, obsRecord("Fraise", "Marche Nerveux", i, price))
	}

	clusters := e.ClusterMarkets(context.Background(), records)
	require.Len(t, clusters, 4)

	byMarket := make(map[string]domain.MarketCluster, len(clusters))
	for _, c := range clusters {
		assert.NotEmpty(t, c.ClusterName)
		byMarket[c.Market] = c
	}

	assert.InDelta(t, 32, byMarket["Marche Haut"].AvgPrice, 0.5)
	assert.Equal(t, 40, byMarket["Marche Volume"].Observations)
	assert.Equal(t, 5, byMarket["Marche Divers"].ProductDiversity)

	// Identical runs produce identical clusterings.
	again := testEngine().ClusterMarkets(context.Background(), records)
	assert.Equal(t, clusters, again)
}

func TestClusterMarkets_FewMarkets(t *testing.T) {
	e := testEngine()
	records := append(
		seriesRecords("Tomate", "Rungis", []float64{2, 3, 2}),
		seriesRecords("Pomme", "Lyon", []float64{1, 1.2, 1.1})...,
	)

	clusters := e.ClusterMarkets(context.Background(), records)
	require.Len(t, clusters, 2, "cluster count is clamped to the market count")
	for _, c := range clusters {
		assert.NotEmpty(t, c.ClusterName)
	}
}

func TestEstimateElasticity(t *testing.T) {
	e := testEngine()

	t.Run("constant prices are perfectly inelastic", func(t *testing.T) {
		records := seriesRecords("Pomme", "Rungis", []float64{3, 3, 3, 3, 3, 3})
		rows := e.EstimateElasticity(context.Background(), records)

		require.Len(t, rows, 1)
		assert.Zero(t, rows[0].Elasticity)
		assert.Equal(t, "inelastic", rows[0].Category)
	})

	t.Run("alternating prices are highly elastic", func(t *testing.T) {
		records := seriesRecords("Fraise", "Rungis", []float64{2, 4, 2, 4, 2, 4, 2, 4})
		rows := e.EstimateElasticity(context.Background(), records)

		require.Len(t, rows, 1)
		assert.Greater(t, absOf(rows[0].Elasticity), 0.8)
		assert.Equal(t, "highly elastic", rows[0].Category)
	})

	t.Run("short series are skipped", func(t *testing.T) {
		records := seriesRecords("Poire", "Rungis", []float64{1, 2, 3, 4})
		assert.Empty(t, e.EstimateElasticity(context.Background(), records))
	})
}

func TestElasticityBanding(t *testing.T) {
	tests := []struct {
		abs         float64
		category    string
		sensitivity string
	}{
		{0.9, "highly elastic", "very price sensitive"},
		{0.75, "elastic", "very price sensitive"},
		{0.6, "elastic", "price sensitive"},
		{0.45, "moderately elastic", "price sensitive"},
		{0.3, "moderately elastic", "not price sensitive"},
		{0.1, "inelastic", "not price sensitive"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.category, elasticityCategory(tt.abs), "category for %.2f", tt.abs)
		assert.Equal(t, tt.sensitivity, priceSensitivity(tt.abs), "sensitivity for %.2f", tt.abs)
	}
}

func TestGenerateAlerts(t *testing.T) {
	e := testEngine()

	t.Run("large jump fires a variation alert", func(t *testing.T) {
		records := seriesRecords("Tomate", "Rungis", []float64{10, 10, 10, 50})
		reports := e.GenerateAlerts(context.Background(), records)

		require.Len(t, reports, 1)
		report := reports[0]
		require.NotEmpty(t, report.Alerts)

		var variation *domain.Alert
		for i := range report.Alerts {
			if report.Alerts[i].Type == domain.AlertSignificantVariation {
				variation = &report.Alerts[i]
			}
		}
		require.NotNil(t, variation)
		assert.InDelta(t, 400, variation.ChangePct, 0.001)
		assert.Equal(t, 50.0, variation.Price)
		assert.NotEmpty(t, variation.ID)

		assert.InDelta(t, 20, report.Stats.Mean, 0.001)
		assert.Equal(t, 10.0, report.Stats.Min)
		assert.Equal(t, 50.0, report.Stats.Max)
	})

	t.Run("constant prices never alert", func(t *testing.T) {
		records := seriesRecords("Pomme", "Rungis", []float64{3, 3, 3, 3, 3})
		reports := e.GenerateAlerts(context.Background(), records)

		require.Len(t, reports, 1)
		assert.Empty(t, reports[0].Alerts)
		assert.Equal(t, "no unusual price movement detected", reports[0].Message)
	})

	t.Run("single observation is skipped", func(t *testing.T) {
		records := seriesRecords("Poire", "Rungis", []float64{4})
		assert.Empty(t, e.GenerateAlerts(context.Background(), records))
	})
}

func TestMonitorPrices(t *testing.T) {
	e := testEngine()

	t.Run("reports the last observation and its change", func(t *testing.T) {
		records := seriesRecords("Tomate Ronde", "Rungis", []float64{10, 10, 10, 11})
		rows := e.MonitorPrices(context.Background(), records)

		require.Len(t, rows, 1)
		row := rows[0]
		assert.Equal(t, "Tomate Ronde", row.Product)
		assert.Equal(t, 11.0, row.CurrentPrice)
		assert.InDelta(t, 10, row.ChangePct, 0.001)
		assert.Equal(t, "up", row.Trend)
		assert.Equal(t, "sharp increase", row.Status)
		require.NotNil(t, row.LastUpdate)
		assert.Equal(t, time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC), *row.LastUpdate)
	})

	t.Run("constant prices read as stable", func(t *testing.T) {
		records := seriesRecords("Pomme", "Rungis", []float64{3, 3, 3})
		rows := e.MonitorPrices(context.Background(), records)

		require.Len(t, rows, 1)
		assert.Zero(t, rows[0].ChangePct)
		assert.Equal(t, "stable", rows[0].Trend)
		assert.Equal(t, "stable", rows[0].Status)
	})

	t.Run("most quoted products come first", func(t *testing.T) {
		records := seriesRecords("Pomme", "Rungis", []float64{3, 3})
		records = append(records, seriesRecords("Tomate", "Rungis", []float64{2, 2, 2, 2})...)
		rows := e.MonitorPrices(context.Background(), records)

		require.Len(t, rows, 2)
		assert.Equal(t, "Tomate", rows[0].Product)
		assert.Equal(t, "Pomme", rows[1].Product)
	})
}

func TestOptimizePortfolio(t *testing.T) {
	e := testEngine()

	t.Run("steady growth earns a strong weight", func(t *testing.T) {
		records := seriesRecords("Fraise", "Rungis", []float64{1, 1.1, 1.32})
		rows := e.OptimizePortfolio(context.Background(), records)

		require.Len(t, rows, 1)
		row := rows[0]
		assert.InDelta(t, 37.8, row.ExpectedReturn, 0.001)
		assert.InDelta(t, 1.1225, row.Volatility, 0.001)
		assert.Greater(t, row.SharpeRatio, 1.5)
		assert.Equal(t, "strong (15-20%)", row.WeightRecommendation)
		assert.Equal(t, "very high risk", row.RiskCategory)
	})

	t.Run("constant prices carry no return and no risk", func(t *testing.T) {
		records := seriesRecords("Pomme", "Rungis", []float64{3, 3, 3, 3})
		rows := e.OptimizePortfolio(context.Background(), records)

		require.Len(t, rows, 1)
		row := rows[0]
		assert.Zero(t, row.ExpectedReturn)
		assert.Zero(t, row.Volatility)
		assert.Zero(t, row.SharpeRatio)
		assert.Equal(t, "low (0-5%)", row.WeightRecommendation)
		assert.Equal(t, "low risk", row.RiskCategory)
	})

	t.Run("single observation is skipped", func(t *testing.T) {
		records := seriesRecords("Poire", "Rungis", []float64{4})
		assert.Empty(t, e.OptimizePortfolio(context.Background(), records))
	})
}

func TestSummarizeDataset(t *testing.T) {
	e := testEngine()

	t.Run("empty table yields a zero summary", func(t *testing.T) {
		summary := e.SummarizeDataset(context.Background(), nil)
		require.NotNil(t, summary)
		assert.Zero(t, summary.TotalRecords)
		assert.Nil(t, summary.Prices)
	})

	t.Run("counts, range and price distribution", func(t *testing.T) {
		records := seriesRecords("Tomate", "Rungis", []float64{2, 4, 6})
		records = append(records, obsRecord("Pomme", "Lyon", 5, 10))
		records = append(records, domain.EnrichedRecord{
			NormalizedRecord: domain.NormalizedRecord{ProductClean: "Tomate", MarketClean: "Rungis"},
		})

		summary := e.SummarizeDataset(context.Background(), records)
		require.NotNil(t, summary)

		assert.Equal(t, 5, summary.TotalRecords)
		assert.Equal(t, "2025-03-01", summary.DateRange.Start)
		assert.Equal(t, "2025-03-06", summary.DateRange.End)
		assert.Equal(t, 2, summary.UniqueProducts)
		assert.Equal(t, 2, summary.UniqueMarkets)

		require.NotEmpty(t, summary.TopProducts)
		assert.Equal(t, domain.NameCount{Name: "Tomate", Count: 4}, summary.TopProducts[0])
		require.NotEmpty(t, summary.TopMarkets)
		assert.Equal(t, domain.NameCount{Name: "Rungis", Count: 4}, summary.TopMarkets[0])

		require.NotNil(t, summary.Prices)
		assert.InDelta(t, 5.5, summary.Prices.Mean, 0.001)
		assert.InDelta(t, 5, summary.Prices.Median, 0.001)
		assert.Equal(t, 2.0, summary.Prices.Min)
		assert.Equal(t, 10.0, summary.Prices.Max)
	})
}

func TestEngineRun(t *testing.T) {
	e := testEngine()

	var records []domain.EnrichedRecord
	products := []string{"Tomate Ronde", "Pomme Golden", "Fraise Gariguette"}
	markets := []string{"Rungis", "Lyon"}
	for p, product := range products {
		for i := 0; i < 20; i++ {
			price := 2.0 + float64(p) + 0.1*float64(i%4)
			records = append(records, obsRecord(product, markets[i%len(markets)], i, price))
		}
	}
	coverage := &domain.CoverageStats{InputCount: 60, OutputCount: 60, WithPrice: 60}

	bundle, err := e.Run(context.Background(), records, coverage)
	require.NoError(t, err)
	require.NotNil(t, bundle)

	assert.NotEmpty(t, bundle.ID)
	assert.False(t, bundle.GeneratedAt.IsZero())
	assert.Equal(t, coverage, bundle.Coverage)
	assert.Len(t, bundle.Sentiment, len(products))
	assert.Len(t, bundle.Elasticity, len(products))
	assert.Len(t, bundle.Clusters, len(markets))
	assert.Len(t, bundle.Alerts, len(products))
	require.NotNil(t, bundle.Forecast)
	assert.Equal(t, len(records), bundle.Forecast.SampleSize)
	assert.Len(t, bundle.Forecast.Horizon, 7)
	assert.Len(t, bundle.Monitoring, len(products))
	assert.Len(t, bundle.Portfolio, len(products))
	require.NotNil(t, bundle.Summary)
	assert.Equal(t, len(records), bundle.Summary.TotalRecords)
	assert.NotNil(t, bundle.Summary.Prices)
}

func absOf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
