// Package analytics runs the statistical and model-based analyses over the
// enriched price table: market sentiment scoring, anomaly detection, market
// clustering, elasticity estimation, price forecasting and threshold alerts.
//
// Analyzers are independent and side-effect free; the Engine fans them out
// concurrently and assembles their outputs into a single ReportBundle. All
// randomized models run from an injected seed so identical inputs always
// produce identical reports.
package analytics
