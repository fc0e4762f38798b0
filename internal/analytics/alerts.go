package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"agropulse/pkg/contracts/domain"
)

const alertMinObservations = 2

// GenerateAlerts evaluates every product with at least two priced
// observations against two rules: a day-over-day change beyond the configured
// threshold, and prices outside the 1.5 IQR Tukey fences. A constant price
// series triggers nothing.
func (e *Engine) GenerateAlerts(ctx context.Context, records []domain.EnrichedRecord) []domain.AlertReport {
	groups := pricedByProduct(records)

	reports := make([]domain.AlertReport, 0, len(groups))
	totalAlerts := 0
	for _, product := range sortedKeys(groups) {
		obs := groups[product]
		if len(obs) < alertMinObservations {
			continue
		}

		report := buildAlertReport(product, obs, e.params.AlertThresholdPct)
		totalAlerts += len(report.Alerts)
		reports = append(reports, report)
	}

	e.logger.InfoContext(ctx, "alert generation completed",
		"products", len(reports), "alerts", totalAlerts)
	return reports
}

func buildAlertReport(product string, obs []priceObservation, thresholdPct float64) domain.AlertReport {
	series := prices(obs)
	report := domain.AlertReport{
		Product: product,
		Alerts:  []domain.Alert{},
		Stats: domain.PriceSummary{
			Mean:   mean(series),
			Min:    minOf(series),
			Max:    maxOf(series),
			StdDev: stdDev(series),
		},
	}

	for i := 1; i < len(obs); i++ {
		prev := obs[i-1].price
		if prev == 0 {
			continue
		}
		changePct := (obs[i].price - prev) / prev * 100
		if math.Abs(changePct) <= thresholdPct {
			continue
		}
		direction := "increase"
		if changePct < 0 {
			direction = "decrease"
		}
		report.Alerts = append(report.Alerts, domain.Alert{
			ID:        uuid.New().String(),
			Type:      domain.AlertSignificantVariation,
			Date:      obs[i].record.Date,
			Price:     obs[i].price,
			ChangePct: changePct,
			Market:    obs[i].record.MarketClean,
			Message:   fmt.Sprintf("%s: %.1f%% price %s", product, math.Abs(changePct), direction),
		})
	}

	q1, q3 := quartiles(series)
	iqr := q3 - q1
	if iqr > 0 {
		low, high := q1-1.5*iqr, q3+1.5*iqr
		for _, o := range obs {
			switch {
			case o.price > high:
				report.Alerts = append(report.Alerts, domain.Alert{
					ID:      uuid.New().String(),
					Type:    domain.AlertHighPrice,
					Date:    o.record.Date,
					Price:   o.price,
					Market:  o.record.MarketClean,
					Message: fmt.Sprintf("%s: price %.2f above the usual range (max %.2f)", product, o.price, high),
				})
			case o.price < low:
				report.Alerts = append(report.Alerts, domain.Alert{
					ID:      uuid.New().String(),
					Type:    domain.AlertLowPrice,
					Date:    o.record.Date,
					Price:   o.price,
					Market:  o.record.MarketClean,
					Message: fmt.Sprintf("%s: price %.2f below the usual range (min %.2f)", product, o.price, low),
				})
			}
		}
	}

	if len(report.Alerts) == 0 {
		report.Message = "no unusual price movement detected"
	}
	return report
}

func minOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
