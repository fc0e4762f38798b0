package analytics

import (
	"context"
	"math"

	"agropulse/pkg/contracts/domain"
)

const (
	portfolioMaxProducts     = 20
	portfolioMinObservations = 2
	tradingDaysPerYear       = 252
)

// OptimizePortfolio scores each product as a buying-portfolio candidate from
// its daily return series: annualized expected return and volatility, the
// Sharpe ratio of the two, and a coarse weight recommendation. Products with
// fewer than two priced observations have no return series and are skipped;
// the output is capped at the twenty most quoted products.
func (e *Engine) OptimizePortfolio(ctx context.Context, records []domain.EnrichedRecord) []domain.PortfolioRow {
	groups := pricedByProduct(records)
	products := rankByObservations(groups, portfolioMaxProducts)

	rows := make([]domain.PortfolioRow, 0, len(products))
	for _, product := range products {
		obs := groups[product]
		if len(obs) < portfolioMinObservations {
			continue
		}

		returns := dailyReturns(prices(obs))
		expectedReturn := sanitize(mean(returns) * tradingDaysPerYear)
		volatility := sanitize(stdDev(returns) * math.Sqrt(tradingDaysPerYear))
		var sharpe float64
		if volatility != 0 {
			sharpe = sanitize(expectedReturn / volatility)
		}

		rows = append(rows, domain.PortfolioRow{
			Product:              product,
			ExpectedReturn:       expectedReturn,
			Volatility:           volatility,
			SharpeRatio:          sharpe,
			WeightRecommendation: weightRecommendation(sharpe),
			RiskCategory:         riskCategory(volatility),
		})
	}

	e.logger.InfoContext(ctx, "portfolio optimization completed", "products", len(rows))
	return rows
}

// dailyReturns is the fractional period-over-period change series.
func dailyReturns(values []float64) []float64 {
	changes := pctChanges(values)
	for i := range changes {
		changes[i] /= 100
	}
	return changes
}

func weightRecommendation(sharpe float64) string {
	switch {
	case sharpe > 1.5:
		return "strong (15-20%)"
	case sharpe > 1.0:
		return "moderate (10-15%)"
	case sharpe > 0.5:
		return "balanced (5-10%)"
	default:
		return "low (0-5%)"
	}
}

func riskCategory(volatility float64) string {
	switch {
	case volatility > 0.3:
		return "very high risk"
	case volatility > 0.2:
		return "high risk"
	case volatility > 0.1:
		return "moderate risk"
	default:
		return "low risk"
	}
}
