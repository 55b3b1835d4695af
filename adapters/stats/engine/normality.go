package engine

import (
	"math"
	"sort"

	"suitecompare/internal/errors"

	"gonum.org/v1/gonum/stat/distuv"
)

// MinNormalityObservations is the smallest sample Shapiro-Wilk accepts
const MinNormalityObservations = 3

// Coefficients of Royston's (1995) polynomial approximations (algorithm
// AS R94), the same constants used by R and scipy.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

const (
	sixOverPi   = 1.90985931710274 // 6/pi
	piOverThree = 1.04719755119660 // pi/3
)

// ShapiroWilk runs the Shapiro-Wilk normality test and returns the W
// statistic and its p-value. Samples with zero range return W = 1, p = 1.
func ShapiroWilk(data []float64) (w, p float64, err error) {
	n := len(data)
	if n < MinNormalityObservations {
		return math.NaN(), math.NaN(), errors.Numeric("shapiro-wilk needs at least %d observations, got %d", MinNormalityObservations, n)
	}

	x := append([]float64(nil), data...)
	sort.Float64s(x)
	if x[n-1]-x[0] == 0 {
		return 1, 1, nil
	}

	a := swCoefficients(n)

	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(n)

	var num, ssq float64
	for i, v := range x {
		num += a[i] * v
		d := v - mean
		ssq += d * d
	}
	w = num * num / ssq
	if w > 1 {
		w = 1
	}

	return w, swPValue(w, n), nil
}

// swCoefficients computes the antisymmetric weights a_i for a sample of n
func swCoefficients(n int) []float64 {
	a := make([]float64, n)
	if n == 3 {
		a[0], a[2] = -math.Sqrt2/2, math.Sqrt2/2
		return a
	}

	fn := float64(n)
	m := make([]float64, n)
	var summ2 float64
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (fn + 0.25))
		summ2 += m[i] * m[i]
	}
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(fn)

	an := m[n-1]/ssumm2 + poly(swC1, rsn)
	a[n-1], a[0] = an, -an

	inner := 1
	var fac float64
	if n > 5 {
		inner = 2
		an1 := m[n-2]/ssumm2 + poly(swC2, rsn)
		a[n-2], a[1] = an1, -an1
		fac = math.Sqrt((summ2 - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1))
	} else {
		fac = math.Sqrt((summ2 - 2*m[n-1]*m[n-1]) / (1 - 2*an*an))
	}
	for i := inner; i < n-inner; i++ {
		a[i] = m[i] / fac
	}
	return a
}

// swPValue maps W to its upper-tail p-value
func swPValue(w float64, n int) float64 {
	if n == 3 {
		p := sixOverPi * (math.Asin(math.Sqrt(w)) - piOverThree)
		return math.Max(p, 0)
	}

	fn := float64(n)
	y := math.Log(1 - w)
	var mu, sigma float64
	if n <= 11 {
		gamma := poly(swG, fn)
		if y >= gamma {
			return 0
		}
		y = -math.Log(gamma - y)
		mu = poly(swC3, fn)
		sigma = math.Exp(poly(swC4, fn))
	} else {
		ln := math.Log(fn)
		mu = poly(swC5, ln)
		sigma = math.Exp(poly(swC6, ln))
	}

	p := distuv.UnitNormal.Survival((y - mu) / sigma)
	return clampProbability(p)
}

// poly evaluates c[0] + c[1]x + c[2]x^2 + ...
func poly(c []float64, x float64) float64 {
	var r float64
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
