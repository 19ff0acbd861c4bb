// Package stats provides the descriptive statistics reported alongside
// coverage results.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary is a five-number summary plus mean and standard deviation
type Summary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summarize describes values. NaNs are skipped; an empty input yields the zero Summary.
func Summarize(values []float64) Summary {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return Summary{}
	}
	sort.Float64s(sorted)

	s := Summary{
		Count:  len(sorted),
		Min:    sorted[0],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
	if len(sorted) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(sorted, nil)
	} else {
		s.Mean = sorted[0]
	}
	return s
}

// SummarizeGrid describes every cell of a row-major grid
func SummarizeGrid(grid [][]float64) Summary {
	n := 0
	for _, row := range grid {
		n += len(row)
	}
	flat := make([]float64, 0, n)
	for _, row := range grid {
		flat = append(flat, row...)
	}
	return Summarize(flat)
}

// RMSE is the root mean square difference of two equal-length series.
// It returns 0 for empty or mismatched input.
func RMSE(actual, predicted []float64) float64 {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return 0
	}
	diff := make([]float64, len(actual))
	floats.SubTo(diff, actual, predicted)
	// Norm scales internally, so large differences do not overflow
	return floats.Norm(diff, 2) / math.Sqrt(float64(len(diff)))
}
