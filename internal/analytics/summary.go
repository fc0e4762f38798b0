package analytics

import (
	"context"
	"sort"
	"time"

	"agropulse/pkg/contracts/domain"
)

const summaryTopCount = 10

// SummarizeDataset computes descriptive statistics over the whole table:
// observation date range, product and market coverage with the ten most
// quoted of each, and the distribution of every usable price.
func (e *Engine) SummarizeDataset(ctx context.Context, records []domain.EnrichedRecord) *domain.DatasetSummary {
	summary := &domain.DatasetSummary{TotalRecords: len(records)}
	if len(records) == 0 {
		return summary
	}

	productCounts := make(map[string]int)
	marketCounts := make(map[string]int)
	var first, last *time.Time
	var priceValues []float64

	for _, rec := range records {
		if rec.ProductClean != "" {
			productCounts[rec.ProductClean]++
		}
		if rec.MarketClean != "" {
			marketCounts[rec.MarketClean]++
		}
		if rec.Date != nil {
			if first == nil || rec.Date.Before(*first) {
				first = rec.Date
			}
			if last == nil || rec.Date.After(*last) {
				last = rec.Date
			}
		}
		if rec.Price != nil {
			priceValues = append(priceValues, *rec.Price)
		}
	}

	if first != nil {
		summary.DateRange = domain.DateRange{
			Start: first.Format("2006-01-02"),
			End:   last.Format("2006-01-02"),
		}
	}
	summary.UniqueProducts = len(productCounts)
	summary.TopProducts = topCounts(productCounts, summaryTopCount)
	summary.UniqueMarkets = len(marketCounts)
	summary.TopMarkets = topCounts(marketCounts, summaryTopCount)

	if len(priceValues) > 0 {
		summary.Prices = &domain.PriceDistribution{
			Mean:   mean(priceValues),
			Median: median(priceValues),
			Min:    minOf(priceValues),
			Max:    maxOf(priceValues),
			StdDev: stdDev(priceValues),
		}
	}

	e.logger.InfoContext(ctx, "dataset summary completed",
		"records", summary.TotalRecords,
		"products", summary.UniqueProducts,
		"markets", summary.UniqueMarkets,
	)
	return summary
}

// topCounts returns up to limit entries ordered by descending count, ties
// broken lexically.
func topCounts(counts map[string]int, limit int) []domain.NameCount {
	names := sortedKeys(counts)
	sort.SliceStable(names, func(i, j int) bool {
		return counts[names[i]] > counts[names[j]]
	})
	if len(names) > limit {
		names = names[:limit]
	}
	out := make([]domain.NameCount, len(names))
	for i, name := range names {
		out[i] = domain.NameCount{Name: name, Count: counts[name]}
	}
	return out
}
