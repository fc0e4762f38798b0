package dataprocessing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"agropulse/internal/config"
	"agropulse/internal/extraction"
	"agropulse/pkg/contracts/domain"
)

// dateLayouts are tried in order when parsing source dates. The price pages
// use day-first dates; exported files use ISO dates.
var dateLayouts = []string{"02-01-2006", "2006-01-02"}

var titleCaser = cases.Title(language.French)

// Normalizer assembles extracted fields and raw metadata into canonical
// records. A single Normalizer is safe for reuse across batches.
type Normalizer struct {
	logger    *slog.Logger
	extractor *extraction.Extractor
}

// NewNormalizer creates a Normalizer using the given taxonomy for the
// extraction vocabulary.
func NewNormalizer(logger *slog.Logger, tax config.Taxonomy) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		logger:    logger,
		extractor: extraction.New(tax),
	}
}

// Normalize converts a batch of raw records into normalized records and
// reports extraction coverage. Malformed fields degrade to nil values; the
// batch itself never fails. Duplicate rows (identical in every field) are
// collapsed to a single observation.
func (n *Normalizer) Normalize(ctx context.Context, raw []domain.RawRecord) ([]domain.NormalizedRecord, domain.CoverageStats) {
	stats := domain.CoverageStats{InputCount: len(raw)}

	seen := make(map[string]struct{}, len(raw))
	records := make([]domain.NormalizedRecord, 0, len(raw))

	for _, r := range raw {
		rec := n.normalizeOne(r)

		key := rec.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if rec.Price != nil {
			stats.WithPrice++
		}
		if rec.Date != nil {
			stats.WithDate++
		}
		if rec.Origin != "" {
			stats.WithOrigin++
		}
		records = append(records, rec)
	}
	stats.OutputCount = len(records)

	n.logger.InfoContext(ctx, "normalization completed",
		"input_records", stats.InputCount,
		"output_records", stats.OutputCount,
		"duplicates_removed", stats.Duplicates(),
		"prices_extracted", stats.WithPrice,
		"price_coverage", stats.PriceCoverage(),
	)

	return records, stats
}

func (n *Normalizer) normalizeOne(r domain.RawRecord) domain.NormalizedRecord {
	fields := n.extractor.Fields(r.Description)

	rec := domain.NormalizedRecord{
		Product:      r.Product,
		Market:       r.Market,
		Description:  r.Description,
		SourceURL:    r.SourceURL,
		Date:         parseDate(r.Date),
		Price:        fields.Price,
		Quantity:     fields.Quantity,
		Unit:         fields.Unit,
		Origin:       fields.Origin,
		Quality:      fields.Quality,
		ProductClean: cleanName(r.Product),
		MarketClean:  cleanName(r.Market),
	}
	rec.UnitPrice = unitPrice(rec.Price, rec.Quantity)
	return rec
}

// unitPrice is price/quantity when a positive quantity exists, otherwise the
// price itself. It is nil exactly when price is nil.
func unitPrice(price *float64, quantity *int) *float64 {
	if price == nil {
		return nil
	}
	value := *price
	if quantity != nil && *quantity > 0 {
		value = *price / float64(*quantity)
	}
	return &value
}

// parseDate tries the known source layouts; nil when none parse.
func parseDate(text string) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, text); err == nil {
			return &d
		}
	}
	return nil
}

// cleanName trims and title-cases a raw product or market name.
func cleanName(name string) string {
	return titleCaser.String(strings.TrimSpace(name))
}
