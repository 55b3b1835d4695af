package engine

import (
	stderrors "errors"
	"math"

	"suitecompare/internal/errors"

	"github.com/aclements/go-moremath/stats"
)

// MinLocationObservations is the smallest group a location test accepts
const MinLocationObservations = 2

// TTestResult is the outcome of a two-sample t-test
type TTestResult struct {
	T   float64
	P   float64
	DoF float64
	// Pooled is true for Student's equal-variance variant.
	Pooled bool
}

// UTestResult is the outcome of a two-sided Mann-Whitney U test. U is the
// statistic of the first sample.
type UTestResult struct {
	U float64
	Z float64
	R float64
	P float64
}

// StudentTTest runs the pooled-variance two-sample t-test
func StudentTTest(x1, x2 []float64) (TTestResult, error) {
	return tTest(x1, x2, true)
}

// WelchTTest runs Welch's unequal-variance two-sample t-test
func WelchTTest(x1, x2 []float64) (TTestResult, error) {
	return tTest(x1, x2, false)
}

func tTest(x1, x2 []float64, pooled bool) (TTestResult, error) {
	if err := checkLocationSizes(x1, x2); err != nil {
		return TTestResult{}, err
	}

	s1, s2 := stats.Sample{Xs: x1}, stats.Sample{Xs: x2}
	var (
		res *stats.TTestResult
		err error
	)
	if pooled {
		res, err = stats.TwoSampleTTest(s1, s2, stats.LocationDiffers)
	} else {
		res, err = stats.TwoSampleWelchTTest(s1, s2, stats.LocationDiffers)
	}

	if stderrors.Is(err, stats.ErrZeroVariance) {
		// Both groups are constant: the test degenerates to comparing the
		// two constants.
		out := TTestResult{Pooled: pooled, DoF: float64(len(x1) + len(x2) - 2)}
		diff := s1.Mean() - s2.Mean()
		switch {
		case diff == 0:
			out.T, out.P = 0, 1
		default:
			out.T, out.P = math.Copysign(math.Inf(1), diff), 0
		}
		return out, nil
	}
	if err != nil {
		return TTestResult{}, errors.WithCode(errors.CodeNumeric, err)
	}

	out := TTestResult{T: res.T, P: clampProbability(res.P), DoF: res.DoF, Pooled: pooled}
	if out.T == 0 {
		out.P = 1
	}
	return out, nil
}

// MannWhitneyU runs the two-sided Mann-Whitney U test with go-moremath,
// which uses the exact distribution for small samples. Z and r come from
// the normal approximation of U.
func MannWhitneyU(x1, x2 []float64) (UTestResult, error) {
	if err := checkLocationSizes(x1, x2); err != nil {
		return UTestResult{}, err
	}

	n1, n2 := float64(len(x1)), float64(len(x2))
	mu := n1 * n2 / 2

	var out UTestResult
	res, err := stats.MannWhitneyUTest(x1, x2, stats.LocationDiffers)
	switch {
	case stderrors.Is(err, stats.ErrSamplesEqual):
		out.U, out.P = mu, 1
	case err != nil:
		return UTestResult{}, errors.WithCode(errors.CodeNumeric, err)
	default:
		out.U, out.P = res.U, clampProbability(res.P)
	}

	if sigma := math.Sqrt(n1 * n2 * (n1 + n2 + 1) / 12); sigma > 0 {
		out.Z = (out.U - mu) / sigma
	}
	out.R = math.Abs(out.Z) / math.Sqrt(n1+n2)
	if out.U == mu {
		out.P = 1
	}
	return out, nil
}

func checkLocationSizes(x1, x2 []float64) error {
	if len(x1) < MinLocationObservations || len(x2) < MinLocationObservations {
		return errors.Numeric("location tests need at least %d observations per group, got %d and %d",
			MinLocationObservations, len(x1), len(x2))
	}
	return nil
}
