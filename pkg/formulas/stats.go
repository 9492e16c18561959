package formulas

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// Median returns the median of data via the empirical quantile at
// p=0.5. data is copied and sorted; the caller's slice is untouched.
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// PercentileRank returns, for value v within population, the fraction
// of the population at or below v — the watchlist ranker's P&L
// normalization. Returns 0 for an empty population.
func PercentileRank(v float64, population []float64) float64 {
	if len(population) == 0 {
		return 0
	}
	sorted := append([]float64(nil), population...)
	sort.Float64s(sorted)

	idx := sort.SearchFloat64s(sorted, v)
	countLE := idx
	for countLE < len(sorted) && sorted[countLE] <= v {
		countLE++
	}
	return float64(countLE) / float64(len(sorted))
}
