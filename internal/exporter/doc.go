// Package exporter writes the pipeline outputs to disk.
//
// CSVWriter handles the tabular exports (raw, normalized and enriched price
// tables) with a UTF-8 BOM for Excel compatibility. WriteReportBundle and
// WriteCoverage emit the JSON artifacts consumed by the web API and external
// dashboards.
package exporter
