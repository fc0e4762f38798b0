package analytics

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"agropulse/pkg/contracts/domain"
)

const (
	anomalyMinObservations = 10
	anomalyContamination   = 0.10
	isolationTrees         = 100
	isolationSampleSize    = 64
)

// DetectAnomalies flags unusual priced observations per product. Products
// with fewer than ten observations are skipped. Roughly the top tenth of
// observations by isolation score is reported, each classified against the
// univariate two-sigma price fences.
func (e *Engine) DetectAnomalies(ctx context.Context, records []domain.EnrichedRecord) []domain.AnomalyRow {
	groups := pricedByProduct(records)
	rng := rand.New(rand.NewSource(e.params.Seed))

	var rows []domain.AnomalyRow
	for _, product := range sortedKeys(groups) {
		obs := groups[product]
		if len(obs) < anomalyMinObservations {
			e.logger.DebugContext(ctx, "anomaly detection skipped",
				"product", product, "observations", len(obs))
			continue
		}
		rows = append(rows, detectProductAnomalies(product, obs, rng)...)
	}

	e.logger.InfoContext(ctx, "anomaly detection completed",
		"products", len(groups), "anomalies", len(rows))
	return rows
}

func detectProductAnomalies(product string, obs []priceObservation, rng *rand.Rand) []domain.AnomalyRow {
	features := make([][]float64, len(obs))
	for i, o := range obs {
		features[i] = []float64{o.price, float64(o.record.Month), float64(o.record.DayOfWeek)}
	}
	standardizeColumns(features)

	forest := buildIsolationForest(features, rng)
	scores := make([]float64, len(features))
	for i, point := range features {
		scores[i] = forest.score(point)
	}

	flagged := int(math.Ceil(anomalyContamination * float64(len(obs))))
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	series := prices(obs)
	m := mean(series)
	sd := stdDev(series)

	rows := make([]domain.AnomalyRow, 0, flagged)
	for _, idx := range order[:flagged] {
		o := obs[idx]
		rows = append(rows, domain.AnomalyRow{
			Product: product,
			Market:  o.record.MarketClean,
			Date:    o.record.Date,
			Price:   o.price,
			Score:   scores[idx],
			Reason:  classifyAnomaly(o.price, m, sd),
		})
	}
	return rows
}

// classifyAnomaly places a flagged price against the two-sigma fences. Prices
// inside both fences were flagged for their multivariate pattern.
func classifyAnomaly(price, mean, sd float64) domain.AnomalyReason {
	switch {
	case price > mean+2*sd:
		return domain.AnomalyHighPrice
	case price < mean-2*sd:
		return domain.AnomalyLowPrice
	default:
		return domain.AnomalyUnusualPattern
	}
}

// isolationTree is a randomized binary partition tree. Points isolated in few
// splits are anomalous.
type isolationTree struct {
	feature   int
	threshold float64
	left      *isolationTree
	right     *isolationTree
	size      int
	isLeaf    bool
}

type isolationForest struct {
	trees      []*isolationTree
	sampleSize int
}

func buildIsolationForest(points [][]float64, rng *rand.Rand) *isolationForest {
	sampleSize := isolationSampleSize
	if sampleSize > len(points) {
		sampleSize = len(points)
	}
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize)))) + 1

	forest := &isolationForest{
		trees:      make([]*isolationTree, isolationTrees),
		sampleSize: sampleSize,
	}
	for t := 0; t < isolationTrees; t++ {
		sample := make([][]float64, sampleSize)
		for i := range sample {
			sample[i] = points[rng.Intn(len(points))]
		}
		forest.trees[t] = buildIsolationTree(sample, 0, maxDepth, rng)
	}
	return forest
}

func buildIsolationTree(points [][]float64, depth, maxDepth int, rng *rand.Rand) *isolationTree {
	if depth >= maxDepth || len(points) <= 1 {
		return &isolationTree{isLeaf: true, size: len(points)}
	}

	feature := rng.Intn(len(points[0]))
	lo, hi := points[0][feature], points[0][feature]
	for _, p := range points[1:] {
		if p[feature] < lo {
			lo = p[feature]
		}
		if p[feature] > hi {
			hi = p[feature]
		}
	}
	if lo == hi {
		return &isolationTree{isLeaf: true, size: len(points)}
	}

	threshold := lo + rng.Float64()*(hi-lo)
	var left, right [][]float64
	for _, p := range points {
		if p[feature] < threshold {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}

	return &isolationTree{
		feature:   feature,
		threshold: threshold,
		left:      buildIsolationTree(left, depth+1, maxDepth, rng),
		right:     buildIsolationTree(right, depth+1, maxDepth, rng),
	}
}

// score returns the anomaly score in (0, 1); values near 1 isolate quickly.
func (f *isolationForest) score(point []float64) float64 {
	total := 0.0
	for _, tree := range f.trees {
		total += pathLength(tree, point, 0)
	}
	avgPath := total / float64(len(f.trees))
	return math.Pow(2, -avgPath/averagePathLength(f.sampleSize))
}

func pathLength(node *isolationTree, point []float64, depth float64) float64 {
	if node.isLeaf {
		return depth + averagePathLength(node.size)
	}
	if point[node.feature] < node.threshold {
		return pathLength(node.left, point, depth+1)
	}
	return pathLength(node.right, point, depth+1)
}

// averagePathLength is the expected unsuccessful-search path length in a
// binary search tree of n nodes.
func averagePathLength(n int) float64 {
	if n <= 1 {
		return 0
	}
	h := math.Log(float64(n-1)) + 0.5772156649
	return 2*h - 2*float64(n-1)/float64(n)
}
