package domain

import (
	"time"
)

// SentimentRow is the per-product output of the sentiment scorer. Score is a
// 0-100 composite of trend, volatility and observation stability.
type SentimentRow struct {
	Product        string  `json:"product"`
	Score          float64 `json:"sentiment_score"`
	Volatility     float64 `json:"volatility"`
	Trend          float64 `json:"trend"`
	Stability      float64 `json:"stability"`
	Observations   int     `json:"observations"`
	Recommendation string  `json:"recommendation"`
}

// AnomalyReason classifies why an observation was flagged as anomalous.
type AnomalyReason string

const (
	// AnomalyHighPrice marks prices above mean + 2 standard deviations.
	AnomalyHighPrice AnomalyReason = "abnormally high price"
	// AnomalyLowPrice marks prices below mean - 2 standard deviations.
	AnomalyLowPrice AnomalyReason = "abnormally low price"
	// AnomalyUnusualPattern marks observations the model flagged that sit
	// within the univariate fences: the deviation is multivariate.
	AnomalyUnusualPattern AnomalyReason = "unusual pattern"
)

// AnomalyRow is a single flagged observation from the anomaly detector.
type AnomalyRow struct {
	Product string        `json:"product"`
	Market  string        `json:"market"`
	Date    *time.Time    `json:"date,omitempty"`
	Price   float64       `json:"price"`
	Score   float64       `json:"anomaly_score"`
	Reason  AnomalyReason `json:"reason"`
}

// MarketCluster is the per-market output of the market clusterer.
type MarketCluster struct {
	Market           string  `json:"market"`
	AvgPrice         float64 `json:"avg_price"`
	PriceVolatility  float64 `json:"price_volatility"`
	ProductDiversity int     `json:"product_diversity"`
	Observations     int     `json:"observations"`
	PriceRange       float64 `json:"price_range"`
	Cluster          int     `json:"cluster"`
	ClusterName      string  `json:"cluster_name"`
}

// ElasticityRow is the per-product output of the elasticity estimator. The
// value is the absolute lag-1 autocorrelation of period-over-period price
// changes, a heuristic proxy for price elasticity of demand.
type ElasticityRow struct {
	Product     string  `json:"product"`
	Elasticity  float64 `json:"elasticity"`
	Category    string  `json:"elasticity_category"`
	Sensitivity string  `json:"price_sensitivity"`
}

// FeatureImportance pairs a forecast model feature with its importance weight.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ForecastPoint is a single predicted price on the forecast horizon.
type ForecastPoint struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predicted_price"`
}

// ForecastReport bundles the fitted model's quality metrics with the
// horizon predictions.
type ForecastReport struct {
	Product     string              `json:"product,omitempty"`
	Market      string              `json:"market,omitempty"`
	Origin      string              `json:"origin,omitempty"`
	SampleSize  int                 `json:"sample_size"`
	MAE         float64             `json:"mae"`
	R2          float64             `json:"r2"`
	Importances []FeatureImportance `json:"feature_importance"`
	Horizon     []ForecastPoint     `json:"horizon,omitempty"`
}

// AlertType identifies the rule that produced an alert.
type AlertType string

const (
	AlertSignificantVariation AlertType = "significant_variation"
	AlertHighPrice            AlertType = "high_price"
	AlertLowPrice             AlertType = "low_price"
)

// Alert is a single triggered price alert for a product.
type Alert struct {
	ID        string     `json:"id"`
	Type      AlertType  `json:"type"`
	Date      *time.Time `json:"date,omitempty"`
	Price     float64    `json:"price"`
	ChangePct float64    `json:"change_pct,omitempty"`
	Market    string     `json:"market"`
	Message   string     `json:"message"`
}

// MonitoringRow is a last-observation snapshot for one product: the latest
// quoted price, the day-over-day change and a coarse status band.
type MonitoringRow struct {
	Product      string     `json:"product"`
	CurrentPrice float64    `json:"current_price"`
	ChangePct    float64    `json:"price_change_pct"`
	Trend        string     `json:"trend"`
	Status       string     `json:"status"`
	LastUpdate   *time.Time `json:"last_update,omitempty"`
}

// PortfolioRow scores one product as a portfolio candidate from its daily
// return series. Return and volatility are annualized.
type PortfolioRow struct {
	Product              string  `json:"product"`
	ExpectedReturn       float64 `json:"expected_return"`
	Volatility           float64 `json:"volatility"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	WeightRecommendation string  `json:"weight_recommendation"`
	RiskCategory         string  `json:"risk_category"`
}

// NameCount pairs a product or market name with its observation count.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DateRange bounds the observation dates of a dataset, ISO formatted.
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// PriceDistribution holds descriptive statistics over every quoted price in
// the dataset.
type PriceDistribution struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// DatasetSummary describes the table as a whole: size, date coverage, the
// dominant products and markets, and the price distribution. Prices is nil
// when no record carries a usable price.
type DatasetSummary struct {
	TotalRecords   int                `json:"total_records"`
	DateRange      DateRange          `json:"date_range"`
	UniqueProducts int                `json:"unique_products"`
	TopProducts    []NameCount        `json:"top_products"`
	UniqueMarkets  int                `json:"unique_markets"`
	TopMarkets     []NameCount        `json:"top_markets"`
	Prices         *PriceDistribution `json:"prices,omitempty"`
}

// PriceSummary holds descriptive statistics over a product's prices.
type PriceSummary struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// AlertReport is the alert generator output for one product: the full alert
// list plus summary statistics.
type AlertReport struct {
	Product string       `json:"product"`
	Alerts  []Alert      `json:"alerts"`
	Message string       `json:"message"`
	Stats   PriceSummary `json:"stats"`
}

// ReportBundle is the consolidated output of a full analytics run, keyed the
// way the exported JSON report is laid out.
type ReportBundle struct {
	ID          string          `json:"id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Coverage    *CoverageStats  `json:"coverage,omitempty"`
	Sentiment   []SentimentRow  `json:"market_sentiment"`
	Anomalies   []AnomalyRow    `json:"anomalies"`
	Clusters    []MarketCluster `json:"market_clusters"`
	Elasticity  []ElasticityRow `json:"elasticity"`
	Forecast    *ForecastReport `json:"forecast,omitempty"`
	Alerts      []AlertReport   `json:"alerts"`
	Monitoring  []MonitoringRow `json:"monitoring"`
	Portfolio   []PortfolioRow  `json:"portfolio"`
	Summary     *DatasetSummary `json:"summary,omitempty"`
}
