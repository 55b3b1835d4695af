package engine

import (
	"math"

	domainstats "suitecompare/domain/stats"
	"suitecompare/internal/errors"

	"github.com/montanaflynn/stats"
)

// Describe computes the descriptive statistics of one group's values.
// StdDev uses the sample (n-1) denominator and is NaN for n < 2. Quartiles
// interpolate linearly between order statistics.
func Describe(data []float64) (domainstats.GroupStats, error) {
	if len(data) == 0 {
		return domainstats.GroupStats{}, errors.Numeric("descriptive statistics need at least 1 observation")
	}

	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	lo, _ := stats.Min(data)
	hi, _ := stats.Max(data)

	stdDev := math.NaN()
	if len(data) >= 2 {
		stdDev, _ = stats.StandardDeviationSample(data)
	}

	sorted, _ := stats.Sorted(data)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)

	return domainstats.GroupStats{
		N:      len(data),
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    lo,
		Max:    hi,
		Q1:     q1,
		Q3:     q3,
	}, nil
}

// quantile returns the p-quantile of an ascending sample by linear
// interpolation at position (n-1)p
func quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// sampleVariance returns the n-1 variance, or an error for n < 2
func sampleVariance(data []float64) (float64, error) {
	if len(data) < 2 {
		return math.NaN(), errors.Numeric("sample variance needs at least 2 observations, got %d", len(data))
	}
	return stats.SampleVariance(data)
}
