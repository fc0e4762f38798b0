package domain

import (
	"fmt"
	"time"
)

// RawRecord is a single scraped price observation exactly as collected from the
// source site. The free-text Description carries every field the extraction
// stage later pulls out. Raw records are immutable once created.
type RawRecord struct {
	Product     string `json:"product" csv:"Product"`
	Date        string `json:"date" csv:"Date"`
	Market      string `json:"market" csv:"Market"`
	Description string `json:"description" csv:"Description"`
	SourceURL   string `json:"source_url" csv:"SourceURL"`
}

// ExtractedFields holds the typed sub-fields pulled out of a free-text
// description. Every field is optional: a pattern miss leaves the field nil or
// empty, never an error.
type ExtractedFields struct {
	Price    *float64 `json:"price,omitempty"`
	Quantity *int     `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Origin   string   `json:"origin,omitempty"`
	Quality  string   `json:"quality,omitempty"`
}

// NormalizedRecord is a RawRecord augmented with extracted typed fields,
// cleaned display names and a computed unit price. The Date pointer is nil when
// the source date string could not be parsed; the record is retained anyway so
// it still counts toward extraction coverage.
type NormalizedRecord struct {
	Product     string     `json:"product"`
	Market      string     `json:"market"`
	Description string     `json:"description"`
	SourceURL   string     `json:"source_url"`
	Date        *time.Time `json:"date,omitempty"`

	Price    *float64 `json:"price,omitempty"`
	Quantity *int     `json:"quantity,omitempty"`
	Unit     string   `json:"unit,omitempty"`
	Origin   string   `json:"origin,omitempty"`
	Quality  string   `json:"quality,omitempty"`

	// UnitPrice is price/quantity when a positive quantity was extracted,
	// otherwise it equals Price. It is non-nil exactly when Price is non-nil.
	UnitPrice    *float64 `json:"unit_price,omitempty"`
	ProductClean string   `json:"product_clean"`
	MarketClean  string   `json:"market_clean"`
}

// HasPrice reports whether a price was extracted for this record. Records
// without a price are excluded from every numeric analysis.
func (r NormalizedRecord) HasPrice() bool {
	return r.Price != nil
}

// DedupKey returns a string identifying the record by full-row equality. Two
// records with identical keys are the same observation.
func (r NormalizedRecord) DedupKey() string {
	date := ""
	if r.Date != nil {
		date = r.Date.Format("2006-01-02")
	}
	price, qty, unitPrice := "", "", ""
	if r.Price != nil {
		price = fmt.Sprintf("%.2f", *r.Price)
	}
	if r.Quantity != nil {
		qty = fmt.Sprintf("%d", *r.Quantity)
	}
	if r.UnitPrice != nil {
		unitPrice = fmt.Sprintf("%.4f", *r.UnitPrice)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s",
		r.Product, date, r.Market, r.Description, r.SourceURL,
		price, qty, r.Unit, r.Origin, r.Quality, unitPrice)
}

// Season is a quarter of the agricultural year derived from the record month.
type Season string

const (
	SeasonWinter Season = "Winter"
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonAutumn Season = "Autumn"
)

// PriceBandUnavailable labels records whose price could not be extracted.
const PriceBandUnavailable = "unavailable"

// CategoryOther is the fallback product category when no taxonomy keyword
// matches the product name.
const CategoryOther = "Other"

// EnrichedRecord is a NormalizedRecord augmented with calendar features and
// taxonomy classifications. Calendar fields are zero and Season is empty when
// the record has no parseable date.
type EnrichedRecord struct {
	NormalizedRecord

	Month     int    `json:"month"`
	Year      int    `json:"year"`
	Quarter   int    `json:"quarter"`
	DayOfWeek int    `json:"day_of_week"`
	Season    Season `json:"season,omitempty"`

	ProductCategory string `json:"product_category"`
	PriceCategory   string `json:"price_category"`
}

// HasDate reports whether calendar features are meaningful for this record.
func (r EnrichedRecord) HasDate() bool {
	return r.Date != nil
}

// CoverageStats reports extraction coverage for a normalization batch. It is
// used for pipeline health reporting only, never for control flow.
type CoverageStats struct {
	InputCount  int `json:"input_count"`
	OutputCount int `json:"output_count"`
	WithPrice   int `json:"with_price"`
	WithDate    int `json:"with_date"`
	WithOrigin  int `json:"with_origin"`
}

// PriceCoverage returns the fraction of surviving records with an extracted
// price, in [0, 1].
func (cs CoverageStats) PriceCoverage() float64 {
	if cs.OutputCount == 0 {
		return 0
	}
	return float64(cs.WithPrice) / float64(cs.OutputCount)
}

// Duplicates returns the number of records removed by deduplication.
func (cs CoverageStats) Duplicates() int {
	return cs.InputCount - cs.OutputCount
}
