// Package dataprocessing turns raw scraped price records into the clean,
// feature-enriched table the analytics engine consumes.
//
// The pipeline has two stages. The Normalizer applies the field extractor to
// every description, parses dates, computes unit prices and deduplicates by
// full-row equality, reporting extraction coverage as it goes. The Enricher
// then derives calendar features (month, season, quarter, day of week) and
// classifies each record against the product taxonomy and price bands.
//
// Both stages absorb malformed input locally: a record that fails extraction
// or date parsing keeps nil fields and stays in the table, so a single bad
// row can never abort a batch.
package dataprocessing
