package analytics

import (
	"context"

	"gonum.org/v1/gonum/stat"

	"agropulse/pkg/contracts/domain"
)

// MarketSentiment scores every product with at least one priced observation.
// The score is a 0-100 composite: a rising trend raises it, volatility lowers
// it, and a longer observation history stabilizes it.
func (e *Engine) MarketSentiment(ctx context.Context, records []domain.EnrichedRecord) []domain.SentimentRow {
	groups := pricedByProduct(records)

	rows := make([]domain.SentimentRow, 0, len(groups))
	for _, product := range sortedKeys(groups) {
		obs := groups[product]
		series := prices(obs)

		m := mean(series)
		volatility := 0.0
		if m != 0 {
			volatility = sanitize(stdDev(series) / m)
		}
		trend := trendPct(series, m)
		stability := float64(len(series)) / 30.0

		score := 50 + 10*trend - 20*volatility + 5*stability
		if score < 0 {
			score = 0
		}
		if score > 100 {
			score = 100
		}

		rows = append(rows, domain.SentimentRow{
			Product:        product,
			Score:          score,
			Volatility:     volatility,
			Trend:          trend,
			Stability:      stability,
			Observations:   len(series),
			Recommendation: recommendationFor(score),
		})
	}

	e.logger.InfoContext(ctx, "market sentiment computed", "products", len(rows))
	return rows
}

// trendPct is the least-squares slope of price against observation index,
// scaled by the mean price into a per-period percentage. Under two
// observations there is no trend.
func trendPct(series []float64, m float64) float64 {
	if len(series) < 2 || m == 0 {
		return 0
	}
	index := make([]float64, len(series))
	for i := range index {
		index[i] = float64(i)
	}
	_, slope := stat.LinearRegression(index, series, nil, false)
	return sanitize(slope / m * 100)
}

func recommendationFor(score float64) string {
	switch {
	case score >= 70:
		return "strong buying opportunity"
	case score >= 50:
		return "moderate opportunity, watch the trend"
	case score >= 30:
		return "weak signal, caution advised"
	default:
		return "avoid, unfavorable conditions"
	}
}
