package engine

import (
	"math"

	"github.com/montanaflynn/stats"
)

// CohensD returns (mean1 - mean2) / pooled standard deviation. A zero pooled
// standard deviation yields 0. Groups with fewer than 2 observations
// contribute no variance.
func CohensD(x1, x2 []float64) float64 {
	n1, n2 := float64(len(x1)), float64(len(x2))
	if n1 == 0 || n2 == 0 {
		return 0
	}
	m1, _ := stats.Mean(x1)
	m2, _ := stats.Mean(x2)

	var ss float64
	if n1 > 1 {
		v, _ := stats.SampleVariance(x1)
		ss += (n1 - 1) * v
	}
	if n2 > 1 {
		v, _ := stats.SampleVariance(x2)
		ss += (n2 - 1) * v
	}
	if n1+n2-2 <= 0 {
		return 0
	}
	pooled := math.Sqrt(ss / (n1 + n2 - 2))
	if pooled == 0 || math.IsNaN(pooled) {
		return 0
	}
	return (m1 - m2) / pooled
}
