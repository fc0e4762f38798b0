// Package extraction parses free-text price descriptions into typed fields.
// Every function is pure: a pattern miss yields a nil or empty field, never an
// error, so a batch of arbitrarily messy descriptions can always be processed.
package extraction

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"agropulse/internal/config"
	"agropulse/pkg/contracts/domain"
)

// pricePatterns are tried in order; the first successful match wins. The
// source site mixes amount-before-currency and currency-before-amount forms,
// with and without the "HT" (pre-tax) marker, and uses both comma and dot
// decimal separators.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+[.,]\d+)\s*€\s*HT`),
	regexp.MustCompile(`€\s*HT\s*(\d+[.,]\d+)`),
	regexp.MustCompile(`(\d+)\s*€\s*HT`),
	regexp.MustCompile(`(\d+[.,]\d+)\s*€`),
	regexp.MustCompile(`€\s*(\d+[.,]\d+)`),
	regexp.MustCompile(`(\d+[.,]\d+)\s*EUR`),
	regexp.MustCompile(`(\d+)\s*€`),
}

// qualityPatterns match grade labels: category codes, the Extra and Bio
// labels, and NN-NNmm size calibres. First match wins.
var qualityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`CAT\.\s*(III|II|I|[123])`),
	regexp.MustCompile(`EXTRA`),
	regexp.MustCompile(`BIO`),
	regexp.MustCompile(`(\d{2})-(\d{2})\s*MM`),
}

// Extractor pulls typed fields out of free-text descriptions. The unit
// vocabulary and origin gazetteer come from the taxonomy so they can be
// extended without code changes.
type Extractor struct {
	quantityPatterns []*regexp.Regexp
	units            []string
	origins          []string
}

// New creates an Extractor for the given taxonomy.
func New(tax config.Taxonomy) *Extractor {
	patterns := make([]*regexp.Regexp, len(tax.Units))
	for i, unit := range tax.Units {
		patterns[i] = regexp.MustCompile(fmt.Sprintf(`(\d+)\s*%s\b`, regexp.QuoteMeta(unit)))
	}
	return &Extractor{
		quantityPatterns: patterns,
		units:            append([]string(nil), tax.Units...),
		origins:          append([]string(nil), tax.Origins...),
	}
}

// Fields extracts all sub-fields from a description in one pass.
func (e *Extractor) Fields(description string) domain.ExtractedFields {
	text := strings.ToUpper(description)
	fields := domain.ExtractedFields{
		Price:   extractPrice(text),
		Origin:  e.extractOrigin(text),
		Quality: extractQuality(text),
	}
	fields.Quantity, fields.Unit = e.extractQuantity(text)
	return fields
}

// Price extracts a price in currency units, or nil when no pattern matches or
// the matched token is not a positive number.
func (e *Extractor) Price(description string) *float64 {
	return extractPrice(strings.ToUpper(description))
}

// Quantity extracts an integer quantity and its unit, or (nil, "") on miss.
func (e *Extractor) Quantity(description string) (*int, string) {
	return e.extractQuantity(strings.ToUpper(description))
}

// Origin extracts the first gazetteer country found in the text, or "".
func (e *Extractor) Origin(description string) string {
	return e.extractOrigin(strings.ToUpper(description))
}

// Quality extracts a grade label, or "".
func (e *Extractor) Quality(description string) string {
	return extractQuality(strings.ToUpper(description))
}

func extractPrice(text string) *float64 {
	for _, pattern := range pricePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		raw := strings.ReplaceAll(match[1], ",", ".")
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price <= 0 {
			continue
		}
		return &price
	}
	return nil
}

func (e *Extractor) extractQuantity(text string) (*int, string) {
	for i, pattern := range e.quantityPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		qty, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return &qty, e.units[i]
	}
	return nil, ""
}

func (e *Extractor) extractOrigin(text string) string {
	// Gazetteer order decides ties when several countries appear.
	for _, country := range e.origins {
		if strings.Contains(text, country) {
			return country
		}
	}
	return ""
}

func extractQuality(text string) string {
	for _, pattern := range qualityPatterns {
		if match := pattern.FindString(text); match != "" {
			return match
		}
	}
	return ""
}
