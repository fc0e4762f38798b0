package analytics

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"agropulse/pkg/contracts/domain"
)

const elasticityMinObservations = 5

// EstimateElasticity derives a price-sensitivity proxy per product from the
// lag-1 autocorrelation of period-over-period price changes. Products with
// fewer than five priced observations are skipped. A constant price series
// has zero elasticity by construction.
func (e *Engine) EstimateElasticity(ctx context.Context, records []domain.EnrichedRecord) []domain.ElasticityRow {
	groups := pricedByProduct(records)

	rows := make([]domain.ElasticityRow, 0, len(groups))
	for _, product := range sortedKeys(groups) {
		obs := groups[product]
		if len(obs) < elasticityMinObservations {
			continue
		}

		changes := pctChanges(prices(obs))
		elasticity := lag1Autocorrelation(changes)
		abs := math.Abs(elasticity)

		rows = append(rows, domain.ElasticityRow{
			Product:     product,
			Elasticity:  elasticity,
			Category:    elasticityCategory(abs),
			Sensitivity: priceSensitivity(abs),
		})
	}

	e.logger.InfoContext(ctx, "elasticity estimation completed", "products", len(rows))
	return rows
}

// lag1Autocorrelation is the Pearson correlation between the change series
// and itself shifted by one period. Degenerate series yield 0.
func lag1Autocorrelation(changes []float64) float64 {
	if len(changes) < 2 {
		return 0
	}
	return sanitize(stat.Correlation(changes[1:], changes[:len(changes)-1], nil))
}

func elasticityCategory(abs float64) string {
	switch {
	case abs > 0.8:
		return "highly elastic"
	case abs > 0.5:
		return "elastic"
	case abs > 0.2:
		return "moderately elastic"
	default:
		return "inelastic"
	}
}

// Sensitivity bands sit below the category bands, so a product can read as
// merely elastic while already very price sensitive.
func priceSensitivity(abs float64) string {
	switch {
	case abs > 0.7:
		return "very price sensitive"
	case abs > 0.4:
		return "price sensitive"
	default:
		return "not price sensitive"
	}
}
