// Package http serves the read-only JSON API over the stored enriched price
// table: record listings, extraction coverage, the six analyzers and the
// consolidated report, plus health and Prometheus metrics endpoints.
package http
