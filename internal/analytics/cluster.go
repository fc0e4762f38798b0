package analytics

import (
	"context"
	"math"
	"math/rand"

	"agropulse/pkg/contracts/domain"
)

const clusterCount = 4

// ClusterMarkets groups markets by their price profile: average price,
// volatility, product diversity, observation count and price range. Cluster
// names are assigned by ranking centroid statistics, so "Premium Markets" is
// always the cluster with the highest average price regardless of which
// numeric cluster index it landed on.
func (e *Engine) ClusterMarkets(ctx context.Context, records []domain.EnrichedRecord) []domain.MarketCluster {
	profiles := marketProfiles(records)
	if len(profiles) == 0 {
		return nil
	}

	features := make([][]float64, len(profiles))
	for i, p := range profiles {
		features[i] = []float64{p.AvgPrice, p.PriceVolatility, float64(p.ProductDiversity), float64(p.Observations), p.PriceRange}
	}
	standardizeColumns(features)

	k := clusterCount
	if k > len(profiles) {
		k = len(profiles)
	}
	rng := rand.New(rand.NewSource(e.params.Seed))
	assignments, _ := kMeans(features, k, rng)

	for i := range profiles {
		profiles[i].Cluster = assignments[i]
	}
	nameClusters(profiles, k)

	e.logger.InfoContext(ctx, "market clustering completed",
		"markets", len(profiles), "clusters", k)
	return profiles
}

func marketProfiles(records []domain.EnrichedRecord) []domain.MarketCluster {
	type marketAccum struct {
		prices   []float64
		products map[string]struct{}
	}
	accum := make(map[string]*marketAccum)
	for _, rec := range records {
		if rec.Price == nil || rec.MarketClean == "" {
			continue
		}
		a, ok := accum[rec.MarketClean]
		if !ok {
			a = &marketAccum{products: make(map[string]struct{})}
			accum[rec.MarketClean] = a
		}
		a.prices = append(a.prices, *rec.Price)
		a.products[rec.ProductClean] = struct{}{}
	}

	profiles := make([]domain.MarketCluster, 0, len(accum))
	for _, market := range sortedKeys(accum) {
		a := accum[market]
		lo, hi := a.prices[0], a.prices[0]
		for _, p := range a.prices[1:] {
			if p < lo {
				lo = p
			}
			if p > hi {
				hi = p
			}
		}
		profiles = append(profiles, domain.MarketCluster{
			Market:           market,
			AvgPrice:         mean(a.prices),
			PriceVolatility:  stdDev(a.prices),
			ProductDiversity: len(a.products),
			Observations:     len(a.prices),
			PriceRange:       hi - lo,
		})
	}
	return profiles
}

// nameClusters ranks cluster centroids on successive statistics and hands out
// names in that order: highest average price, then highest observation count,
// then highest product diversity; whatever remains is the volatile group.
func nameClusters(profiles []domain.MarketCluster, k int) {
	type centroid struct {
		avgPrice     float64
		observations float64
		diversity    float64
		count        int
	}
	centroids := make([]centroid, k)
	for _, p := range profiles {
		c := &centroids[p.Cluster]
		c.avgPrice += p.AvgPrice
		c.observations += float64(p.Observations)
		c.diversity += float64(p.ProductDiversity)
		c.count++
	}
	for i := range centroids {
		if centroids[i].count > 0 {
			n := float64(centroids[i].count)
			centroids[i].avgPrice /= n
			centroids[i].observations /= n
			centroids[i].diversity /= n
		}
	}

	names := make(map[int]string, k)
	assigned := make(map[int]bool, k)

	pick := func(name string, metric func(centroid) float64) {
		best, bestVal := -1, math.Inf(-1)
		for i, c := range centroids {
			if assigned[i] || c.count == 0 {
				continue
			}
			if v := metric(c); v > bestVal {
				best, bestVal = i, v
			}
		}
		if best >= 0 {
			names[best] = name
			assigned[best] = true
		}
	}

	pick("Premium Markets", func(c centroid) float64 { return c.avgPrice })
	pick("Volume Markets", func(c centroid) float64 { return c.observations })
	pick("Diversified Markets", func(c centroid) float64 { return c.diversity })
	for i, c := range centroids {
		if !assigned[i] && c.count > 0 {
			names[i] = "Volatile Markets"
		}
	}

	for i := range profiles {
		profiles[i].ClusterName = names[profiles[i].Cluster]
	}
}

// kMeans is Lloyd's algorithm with seeded random initial centroids. It
// returns per-point cluster assignments and the final centroids.
func kMeans(points [][]float64, k int, rng *rand.Rand) ([]int, [][]float64) {
	dims := len(points[0])
	centroids := make([][]float64, k)
	perm := rng.Perm(len(points))
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), points[perm[i]]...)
	}

	assignments := make([]int, len(points))
	for iter := 0; iter < 100; iter++ {
		changed := false
		for i, p := range points {
			best, bestDist := 0, math.Inf(1)
			for c, centroid := range centroids {
				if d := squaredDistance(p, centroid); d < bestDist {
					best, bestDist = c, d
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, p := range points {
			c := assignments[i]
			counts[c]++
			for d, v := range p {
				sums[c][d] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for d := range centroids[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}
	return assignments, centroids
}

func squaredDistance(a, b []float64) float64 {
	total := 0.0
	for i := range a {
		diff := a[i] - b[i]
		total += diff * diff
	}
	return total
}
