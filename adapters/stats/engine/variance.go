package engine

import (
	"math"

	"suitecompare/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// LeveneResult holds the median-centred Levene (Brown-Forsythe) statistic
type LeveneResult struct {
	Statistic float64
	P         float64
	DF1       float64
	DF2       float64
	// Variances are the sample variances of each group, in argument order.
	Variances []float64
	// Ratio is max(variance) / min(variance); +Inf when the smaller is zero.
	Ratio float64
}

// Levene tests the null hypothesis that all groups share one variance,
// using absolute deviations from each group's median. Every group needs at
// least 2 observations.
func Levene(groups ...[]float64) (LeveneResult, error) {
	k := len(groups)
	if k < 2 {
		return LeveneResult{}, errors.Numeric("levene needs at least 2 groups, got %d", k)
	}

	var total int
	deviations := make([][]float64, k)
	groupMeans := make([]float64, k)
	variances := make([]float64, k)
	for i, g := range groups {
		if len(g) < 2 {
			return LeveneResult{}, errors.Numeric("levene needs at least 2 observations per group, group %d has %d", i+1, len(g))
		}
		median, err := stats.Median(g)
		if err != nil {
			return LeveneResult{}, errors.WithCode(errors.CodeNumeric, err)
		}
		z := make([]float64, len(g))
		var sum float64
		for j, v := range g {
			z[j] = math.Abs(v - median)
			sum += z[j]
		}
		deviations[i] = z
		groupMeans[i] = sum / float64(len(g))
		total += len(g)

		variances[i], err = sampleVariance(g)
		if err != nil {
			return LeveneResult{}, err
		}
	}

	var grand float64
	for i, z := range deviations {
		grand += groupMeans[i] * float64(len(z))
	}
	grand /= float64(total)

	var between, within float64
	for i, z := range deviations {
		d := groupMeans[i] - grand
		between += float64(len(z)) * d * d
		for _, v := range z {
			e := v - groupMeans[i]
			within += e * e
		}
	}

	df1 := float64(k - 1)
	df2 := float64(total - k)
	res := LeveneResult{
		DF1:       df1,
		DF2:       df2,
		Variances: variances,
		Ratio:     varianceRatio(variances),
	}

	switch {
	case within == 0 && between == 0:
		res.Statistic, res.P = 0, 1
	case within == 0:
		res.Statistic, res.P = math.Inf(1), 0
	default:
		res.Statistic = (df2 * between) / (df1 * within)
		f := distuv.F{D1: df1, D2: df2}
		res.P = clampProbability(1 - f.CDF(res.Statistic))
	}
	return res, nil
}

func varianceRatio(vs []float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	switch {
	case hi == 0:
		return 1
	case lo == 0:
		return math.Inf(1)
	}
	return hi / lo
}
