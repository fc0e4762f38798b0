package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"agropulse/pkg/contracts/domain"
)

// sanitize maps NaN and infinities to 0 so a degenerate series (constant
// prices, single observation) never leaks non-finite values into reports.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sanitize(stat.Mean(values, nil))
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return sanitize(stat.StdDev(values, nil))
}

// pctChanges returns period-over-period relative changes in percent. A zero
// previous value contributes a zero change.
func pctChanges(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	changes := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			changes = append(changes, 0)
			continue
		}
		changes = append(changes, (values[i]-prev)/prev*100)
	}
	return changes
}

// quartiles returns Q1 and Q3 of the values using linear interpolation.
func quartiles(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	return sanitize(q1), sanitize(q3)
}

// standardizeColumns z-scores each column of the feature matrix in place.
// Zero-variance columns are left at zero.
func standardizeColumns(rows [][]float64) {
	if len(rows) == 0 {
		return
	}
	cols := len(rows[0])
	column := make([]float64, len(rows))
	for c := 0; c < cols; c++ {
		for i, row := range rows {
			column[i] = row[c]
		}
		m := mean(column)
		sd := stdDev(column)
		for i := range rows {
			if sd == 0 {
				rows[i][c] = 0
				continue
			}
			rows[i][c] = (rows[i][c] - m) / sd
		}
	}
}

// priceObservation is one priced record projected to the fields the analyzers
// work with. Slices of observations are always date-ascending; undated
// records sort first in input order.
type priceObservation struct {
	record domain.EnrichedRecord
	price  float64
}

// pricedByProduct groups records with a price by cleaned product name and
// sorts each group by date.
func pricedByProduct(records []domain.EnrichedRecord) map[string][]priceObservation {
	groups := make(map[string][]priceObservation)
	for _, rec := range records {
		if rec.Price == nil || rec.ProductClean == "" {
			continue
		}
		groups[rec.ProductClean] = append(groups[rec.ProductClean], priceObservation{record: rec, price: *rec.Price})
	}
	for _, obs := range groups {
		sortByDate(obs)
	}
	return groups
}

func sortByDate(obs []priceObservation) {
	sort.SliceStable(obs, func(i, j int) bool {
		di, dj := obs[i].record.Date, obs[j].record.Date
		if di == nil || dj == nil {
			return dj != nil
		}
		return di.Before(*dj)
	})
}

func prices(obs []priceObservation) []float64 {
	out := make([]float64, len(obs))
	for i, o := range obs {
		out[i] = o.price
	}
	return out
}

// sortedKeys returns map keys in lexical order so analyzer output ordering is
// stable across runs.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
