package analytics

import (
	"context"
	"sort"

	"agropulse/pkg/contracts/domain"
)

const (
	monitoringMaxProducts = 10
	monitoringWindow      = 7
)

// MonitorPrices builds a last-observation snapshot per product: the latest
// quoted price, its day-over-day change and a coarse status. Products are
// ranked by observation count so the snapshot covers the most quoted listings
// first, capped at ten rows.
func (e *Engine) MonitorPrices(ctx context.Context, records []domain.EnrichedRecord) []domain.MonitoringRow {
	groups := pricedByProduct(records)
	products := rankByObservations(groups, monitoringMaxProducts)

	rows := make([]domain.MonitoringRow, 0, len(products))
	for _, product := range products {
		obs := groups[product]
		if len(obs) > monitoringWindow {
			obs = obs[len(obs)-monitoringWindow:]
		}

		last := obs[len(obs)-1]
		prev := last
		if len(obs) > 1 {
			prev = obs[len(obs)-2]
		}
		var changePct float64
		if prev.price != 0 {
			changePct = (last.price - prev.price) / prev.price * 100
		}
		changePct = sanitize(changePct)

		rows = append(rows, domain.MonitoringRow{
			Product:      product,
			CurrentPrice: last.price,
			ChangePct:    changePct,
			Trend:        priceTrend(changePct),
			Status:       priceStatus(changePct),
			LastUpdate:   last.record.Date,
		})
	}

	e.logger.InfoContext(ctx, "price monitoring completed", "products", len(rows))
	return rows
}

func priceTrend(changePct float64) string {
	switch {
	case changePct > 0:
		return "up"
	case changePct < 0:
		return "down"
	default:
		return "stable"
	}
}

func priceStatus(changePct float64) string {
	switch {
	case changePct > 5:
		return "sharp increase"
	case changePct > 2:
		return "moderate increase"
	case changePct < -5:
		return "sharp decrease"
	case changePct < -2:
		return "moderate decrease"
	default:
		return "stable"
	}
}

// rankByObservations returns up to limit product names ordered by descending
// observation count, ties broken lexically.
func rankByObservations(groups map[string][]priceObservation, limit int) []string {
	names := sortedKeys(groups)
	sort.SliceStable(names, func(i, j int) bool {
		return len(groups[names[i]]) > len(groups[names[j]])
	})
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}
	return names
}
