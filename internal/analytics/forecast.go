package analytics

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"agropulse/pkg/contracts/domain"
)

const (
	forecastMinRows    = 10
	forestTreeCount    = 50
	forestMaxDepth     = 10
	forestMinSamples   = 2
	forecastTestShare  = 0.2
	forecastDateLayout = "2006-01-02"
)

// forecastFeatureNames index the model's feature vector. Categorical fields
// are label-encoded.
var forecastFeatureNames = []string{"month", "year", "product", "market", "origin", "quality", "season"}

// ForecastQuery restricts the training set and sets the prediction horizon.
// Empty filter fields match everything.
type ForecastQuery struct {
	Product string
	Market  string
	Origin  string
	Horizon int
}

// Forecast fits a seeded random-forest price model on the filtered table and
// predicts the next Horizon days. Fewer than ten matching priced, dated rows
// is a diagnostic error, not a server failure.
func (e *Engine) Forecast(ctx context.Context, records []domain.EnrichedRecord, query ForecastQuery) (*domain.ForecastReport, error) {
	rows := filterForecastRows(records, query)
	if len(rows) < forecastMinRows {
		return nil, fmt.Errorf("%w: %d matching observations, need at least %d",
			ErrInsufficientData, len(rows), forecastMinRows)
	}

	enc := newLabelEncoders(rows)
	features := make([][]float64, len(rows))
	labels := make([]float64, len(rows))
	for i, rec := range rows {
		features[i] = enc.encode(rec)
		labels[i] = *rec.Price
	}

	rng := rand.New(rand.NewSource(e.params.Seed))
	trainX, trainY, testX, testY := splitTrainTest(features, labels, rng)

	forest := buildRandomForest(trainX, trainY, rng)

	predictions := make([]float64, len(testY))
	for i, x := range testX {
		predictions[i] = forest.predict(x)
	}

	report := &domain.ForecastReport{
		Product:     query.Product,
		Market:      query.Market,
		Origin:      query.Origin,
		SampleSize:  len(rows),
		MAE:         meanAbsoluteError(predictions, testY),
		R2:          rSquared(predictions, testY),
		Importances: forest.importances(),
	}
	if query.Horizon > 0 {
		report.Horizon = e.predictHorizon(forest, rows, enc, query.Horizon)
	}

	e.logger.InfoContext(ctx, "forecast model fitted",
		"sample_size", report.SampleSize,
		"mae", report.MAE,
		"r2", report.R2,
		"horizon", query.Horizon,
	)
	return report, nil
}

// predictHorizon walks forward one day at a time from the latest observed
// date, feeding each future date's calendar fields and the monthly means of
// the encoded categorical features through the fitted model.
func (e *Engine) predictHorizon(forest *randomForest, rows []domain.EnrichedRecord, enc *labelEncoders, horizon int) []domain.ForecastPoint {
	last := time.Time{}
	for _, rec := range rows {
		if rec.Date != nil && rec.Date.After(last) {
			last = *rec.Date
		}
	}

	// Mean encoded categorical values per month, with an overall fallback
	// for months absent from the history.
	monthly := make(map[int][]float64)
	monthlyCounts := make(map[int]int)
	overall := make([]float64, len(forecastFeatureNames))
	for _, rec := range rows {
		x := enc.encode(rec)
		acc, ok := monthly[rec.Month]
		if !ok {
			acc = make([]float64, len(x))
			monthly[rec.Month] = acc
		}
		for f := 2; f < len(x); f++ {
			acc[f] += x[f]
			overall[f] += x[f]
		}
		monthlyCounts[rec.Month]++
	}
	for f := range overall {
		overall[f] /= float64(len(rows))
	}

	points := make([]domain.ForecastPoint, 0, horizon)
	for d := 1; d <= horizon; d++ {
		date := last.AddDate(0, 0, d)
		month := int(date.Month())

		x := make([]float64, len(forecastFeatureNames))
		x[0] = float64(month)
		x[1] = float64(date.Year())
		if acc, ok := monthly[month]; ok {
			n := float64(monthlyCounts[month])
			for f := 2; f < len(x); f++ {
				x[f] = acc[f] / n
			}
		} else {
			copy(x[2:], overall[2:])
		}

		points = append(points, domain.ForecastPoint{
			Date:           date.Format(forecastDateLayout),
			PredictedPrice: round2(forest.predict(x)),
		})
	}
	return points
}

func filterForecastRows(records []domain.EnrichedRecord, query ForecastQuery) []domain.EnrichedRecord {
	var rows []domain.EnrichedRecord
	for _, rec := range records {
		if rec.Price == nil || rec.Date == nil {
			continue
		}
		if query.Product != "" && !strings.EqualFold(rec.ProductClean, query.Product) {
			continue
		}
		if query.Market != "" && !strings.EqualFold(rec.MarketClean, query.Market) {
			continue
		}
		if query.Origin != "" && !strings.EqualFold(rec.Origin, query.Origin) {
			continue
		}
		rows = append(rows, rec)
	}
	return rows
}

// labelEncoders map each categorical field's values to stable numeric codes
// in lexical order.
type labelEncoders struct {
	product map[string]float64
	market  map[string]float64
	origin  map[string]float64
	quality map[string]float64
	season  map[string]float64
}

func newLabelEncoders(rows []domain.EnrichedRecord) *labelEncoders {
	collect := func(get func(domain.EnrichedRecord) string) map[string]float64 {
		values := make(map[string]struct{})
		for _, rec := range rows {
			values[get(rec)] = struct{}{}
		}
		codes := make(map[string]float64, len(values))
		for i, v := range sortedKeys(values) {
			codes[v] = float64(i)
		}
		return codes
	}
	return &labelEncoders{
		product: collect(func(r domain.EnrichedRecord) string { return r.ProductClean }),
		market:  collect(func(r domain.EnrichedRecord) string { return r.MarketClean }),
		origin:  collect(func(r domain.EnrichedRecord) string { return r.Origin }),
		quality: collect(func(r domain.EnrichedRecord) string { return r.Quality }),
		season:  collect(func(r domain.EnrichedRecord) string { return string(r.Season) }),
	}
}

func (e *labelEncoders) encode(rec domain.EnrichedRecord) []float64 {
	return []float64{
		float64(rec.Month),
		float64(rec.Year),
		e.product[rec.ProductClean],
		e.market[rec.MarketClean],
		e.origin[rec.Origin],
		e.quality[rec.Quality],
		e.season[string(rec.Season)],
	}
}

func splitTrainTest(features [][]float64, labels []float64, rng *rand.Rand) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64) {
	perm := rng.Perm(len(features))
	testN := int(math.Round(forecastTestShare * float64(len(features))))
	if testN < 1 {
		testN = 1
	}
	for i, idx := range perm {
		if i < testN {
			testX = append(testX, features[idx])
			testY = append(testY, labels[idx])
		} else {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, labels[idx])
		}
	}
	return trainX, trainY, testX, testY
}

// regressionTree is a CART tree splitting on per-feature medians by variance
// reduction.
type regressionTree struct {
	feature   int
	threshold float64
	left      *regressionTree
	right     *regressionTree
	value     float64
	isLeaf    bool
}

type randomForest struct {
	trees []*regressionTree
	// gains accumulates variance reduction per feature across all trees.
	gains []float64
}

func buildRandomForest(features [][]float64, labels []float64, rng *rand.Rand) *randomForest {
	forest := &randomForest{
		trees: make([]*regressionTree, forestTreeCount),
		gains: make([]float64, len(forecastFeatureNames)),
	}
	for t := 0; t < forestTreeCount; t++ {
		// Bootstrap sample with replacement.
		sampleX := make([][]float64, len(features))
		sampleY := make([]float64, len(labels))
		for i := range sampleX {
			idx := rng.Intn(len(features))
			sampleX[i] = features[idx]
			sampleY[i] = labels[idx]
		}
		forest.trees[t] = buildRegressionTree(sampleX, sampleY, 0, forest.gains)
	}
	return forest
}

func buildRegressionTree(features [][]float64, labels []float64, depth int, gains []float64) *regressionTree {
	if depth >= forestMaxDepth || len(labels) < forestMinSamples || variance(labels) == 0 {
		return &regressionTree{isLeaf: true, value: mean(labels)}
	}

	bestFeature, bestThreshold, bestGain := bestVarianceSplit(features, labels)
	if bestGain <= 0 {
		return &regressionTree{isLeaf: true, value: mean(labels)}
	}
	gains[bestFeature] += bestGain * float64(len(labels))

	leftX, leftY, rightX, rightY := partition(features, labels, bestFeature, bestThreshold)
	return &regressionTree{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      buildRegressionTree(leftX, leftY, depth+1, gains),
		right:     buildRegressionTree(rightX, rightY, depth+1, gains),
	}
}

func bestVarianceSplit(features [][]float64, labels []float64) (int, float64, float64) {
	parent := variance(labels)
	bestFeature, bestThreshold, bestGain := 0, 0.0, 0.0

	for feature := 0; feature < len(features[0]); feature++ {
		values := make([]float64, len(features))
		for i, row := range features {
			values[i] = row[feature]
		}
		threshold := median(values)

		_, leftY, _, rightY := partition(features, labels, feature, threshold)
		if len(leftY) == 0 || len(rightY) == 0 {
			continue
		}

		n := float64(len(labels))
		weighted := float64(len(leftY))/n*variance(leftY) + float64(len(rightY))/n*variance(rightY)
		if gain := parent - weighted; gain > bestGain {
			bestFeature, bestThreshold, bestGain = feature, threshold, gain
		}
	}
	return bestFeature, bestThreshold, bestGain
}

func partition(features [][]float64, labels []float64, feature int, threshold float64) (leftX [][]float64, leftY []float64, rightX [][]float64, rightY []float64) {
	for i, row := range features {
		if row[feature] <= threshold {
			leftX = append(leftX, row)
			leftY = append(leftY, labels[i])
		} else {
			rightX = append(rightX, row)
			rightY = append(rightY, labels[i])
		}
	}
	return leftX, leftY, rightX, rightY
}

func (f *randomForest) predict(x []float64) float64 {
	total := 0.0
	for _, tree := range f.trees {
		total += predictTree(tree, x)
	}
	return total / float64(len(f.trees))
}

func predictTree(node *regressionTree, x []float64) float64 {
	if node.isLeaf {
		return node.value
	}
	if x[node.feature] <= node.threshold {
		return predictTree(node.left, x)
	}
	return predictTree(node.right, x)
}

// importances normalizes accumulated split gains into weights summing to 1,
// sorted descending.
func (f *randomForest) importances() []domain.FeatureImportance {
	total := 0.0
	for _, g := range f.gains {
		total += g
	}
	out := make([]domain.FeatureImportance, len(forecastFeatureNames))
	for i, name := range forecastFeatureNames {
		importance := 0.0
		if total > 0 {
			importance = f.gains[i] / total
		}
		out[i] = domain.FeatureImportance{Feature: name, Importance: importance}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out
}

func meanAbsoluteError(predicted, actual []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	total := 0.0
	for i := range actual {
		total += math.Abs(predicted[i] - actual[i])
	}
	return sanitize(total / float64(len(actual)))
}

func rSquared(predicted, actual []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	m := mean(actual)
	ssRes, ssTot := 0.0, 0.0
	for i := range actual {
		ssRes += (actual[i] - predicted[i]) * (actual[i] - predicted[i])
		ssTot += (actual[i] - m) * (actual[i] - m)
	}
	if ssTot == 0 {
		return 0
	}
	return sanitize(1 - ssRes/ssTot)
}

func variance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	total := 0.0
	for _, v := range values {
		total += (v - m) * (v - m)
	}
	return total / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
