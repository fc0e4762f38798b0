package dataprocessing

import (
	"log/slog"
	"strings"

	"agropulse/internal/config"
	"agropulse/pkg/contracts/domain"
)

// Enricher derives calendar features and taxonomy classifications from
// normalized records.
type Enricher struct {
	logger   *slog.Logger
	taxonomy config.Taxonomy
}

// NewEnricher creates an Enricher over the given taxonomy.
func NewEnricher(logger *slog.Logger, tax config.Taxonomy) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{logger: logger, taxonomy: tax}
}

// Enrich adds derived features to every record. Records without a parseable
// date keep zero calendar fields and an empty season. Price banding applies
// only when at least one record in the batch carries a price; an all-null
// price column short-circuits to the unavailable band for the whole batch.
func (e *Enricher) Enrich(records []domain.NormalizedRecord) []domain.EnrichedRecord {
	anyPrice := false
	for _, r := range records {
		if r.HasPrice() {
			anyPrice = true
			break
		}
	}

	enriched := make([]domain.EnrichedRecord, len(records))
	for i, r := range records {
		rec := domain.EnrichedRecord{NormalizedRecord: r}

		if r.Date != nil {
			rec.Month = int(r.Date.Month())
			rec.Year = r.Date.Year()
			rec.Quarter = (rec.Month-1)/3 + 1
			rec.DayOfWeek = int(r.Date.Weekday())
			rec.Season = SeasonOf(rec.Month)
		}

		rec.ProductCategory = e.categorize(r.ProductClean)
		rec.PriceCategory = e.priceBand(r.Price, anyPrice)

		enriched[i] = rec
	}

	e.logger.Info("enrichment completed",
		"records", len(enriched),
		"price_banding", anyPrice,
	)
	return enriched
}

// SeasonOf maps a month in [1,12] to its season. The mapping is total: any
// value outside the winter/spring/summer ranges falls into autumn, matching
// the month arithmetic of the source data.
func SeasonOf(month int) domain.Season {
	switch {
	case month == 12 || month == 1 || month == 2:
		return domain.SeasonWinter
	case month >= 3 && month <= 5:
		return domain.SeasonSpring
	case month >= 6 && month <= 8:
		return domain.SeasonSummer
	default:
		return domain.SeasonAutumn
	}
}

// categorize returns the first taxonomy category with a keyword contained in
// the lower-cased product name, or the Other fallback.
func (e *Enricher) categorize(productName string) string {
	if cat := e.taxonomy.CategoryFor(strings.ToLower(productName)); cat != "" {
		return cat
	}
	return domain.CategoryOther
}

func (e *Enricher) priceBand(price *float64, anyPrice bool) string {
	if !anyPrice || price == nil {
		return domain.PriceBandUnavailable
	}
	if band := e.taxonomy.BandFor(*price); band != "" {
		return band
	}
	return domain.PriceBandUnavailable
}
