// Package analysis runs the statistical comparison of the Manual and IA
// groups: descriptive statistics, normality and variance checks, test
// selection, the location comparison with effect sizes, and the
// cross-granularity concordance.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"suitecompare/adapters/stats/engine"
	"suitecompare/domain/core"
	"suitecompare/domain/metrics"
	"suitecompare/domain/stats"
	"suitecompare/internal/logging"
)

// Comparator runs the comparison procedures for a fixed metric list
type Comparator struct {
	alpha         float64
	metrics       []metrics.Metric
	granularities []stats.Granularity
	primary       stats.Granularity
	logger        *slog.Logger
}

// Options configures a Comparator
type Options struct {
	Alpha         float64
	Metrics       []metrics.Metric
	Granularities []stats.Granularity
	Primary       stats.Granularity
}

// NewComparator creates a comparator. Zero options fall back to alpha 0.05,
// every metric, and both granularities with aggregated as primary.
func NewComparator(opts Options) *Comparator {
	if opts.Alpha <= 0 || opts.Alpha >= 1 {
		opts.Alpha = stats.DefaultAlpha
	}
	if len(opts.Metrics) == 0 {
		opts.Metrics = metrics.AllMetrics
	}
	if len(opts.Granularities) == 0 {
		opts.Granularities = []stats.Granularity{stats.Aggregated, stats.Raw}
	}
	if opts.Primary == "" {
		opts.Primary = opts.Granularities[0]
	}
	return &Comparator{
		alpha:         opts.Alpha,
		metrics:       append([]metrics.Metric(nil), opts.Metrics...),
		granularities: append([]stats.Granularity(nil), opts.Granularities...),
		primary:       opts.Primary,
		logger:        logging.New("comparison"),
	}
}

// NewResultSet creates an empty result set carrying the comparator's run
// parameters.
func (c *Comparator) NewResultSet() *stats.ResultSet {
	return stats.NewResultSet(c.alpha, c.metrics, c.granularities, c.primary)
}

// Compare runs every procedure in pipeline order and returns the filled
// result set.
func (c *Comparator) Compare(ctx context.Context, units Units) (*stats.ResultSet, error) {
	rs := c.NewResultSet()
	steps := []func(*stats.ResultSet, Units){
		c.Describe,
		c.Normality,
		c.Variance,
		c.Location,
		c.Concordance,
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step(rs, units)
	}
	c.logger.Info("comparison complete",
		"metrics", len(c.metrics),
		"granularities", len(c.granularities),
		"results", len(rs.Results))
	return rs, nil
}

// Describe appends descriptive statistics per metric, group and
// granularity, plus per-category rows at raw granularity.
func (c *Comparator) Describe(rs *stats.ResultSet, units Units) {
	for _, g := range c.granularities {
		for _, m := range c.metrics {
			for _, grp := range metrics.Groups {
				rs.Descriptives = append(rs.Descriptives, stats.Descriptive{
					Metric:      m,
					Granularity: g,
					Group:       grp,
					Stats:       describe(units.Values(g, grp, m)),
				})
			}
		}
	}

	for _, cat := range metrics.Categories {
		subset := units.Raw.Filter(func(r metrics.Record) bool { return r.Category == cat })
		for _, m := range c.metrics {
			for _, grp := range metrics.Groups {
				rs.Descriptives = append(rs.Descriptives, stats.Descriptive{
					Metric:      m,
					Granularity: stats.Raw,
					Group:       grp,
					Category:    cat,
					Stats:       describe(subset.Values(grp, m)),
				})
			}
		}
	}
}

// Normality appends one Shapiro-Wilk result per group, metric and
// granularity. Groups with fewer than 3 values get an insufficient-data
// result instead of failing the run.
func (c *Comparator) Normality(rs *stats.ResultSet, units Units) {
	for _, g := range c.granularities {
		for _, m := range c.metrics {
			for _, grp := range metrics.Groups {
				rs.Append(c.normality(m, g, grp, units.Values(g, grp, m)))
			}
		}
	}
}

func (c *Comparator) normality(m metrics.Metric, g stats.Granularity, grp metrics.Group, xs []float64) stats.Result {
	res := stats.Result{
		Metric:      m,
		Granularity: g,
		TestType:    stats.ShapiroWilk,
		Group:       grp,
		Stats:       map[metrics.Group]stats.GroupStats{grp: describe(xs)},
	}
	w, p, err := engine.ShapiroWilk(xs)
	if err != nil {
		return c.insufficient(res, err)
	}
	res.Statistic = w
	res.PValue = p
	res.Decision = p >= c.alpha
	return res
}

// Variance appends one median-centred Levene result per metric and
// granularity.
func (c *Comparator) Variance(rs *stats.ResultSet, units Units) {
	for _, g := range c.granularities {
		for _, m := range c.metrics {
			manual := units.Values(g, metrics.GroupManual, m)
			ia := units.Values(g, metrics.GroupIA, m)
			rs.Append(c.variance(m, g, manual, ia))
		}
	}
}

func (c *Comparator) variance(m metrics.Metric, g stats.Granularity, manual, ia []float64) stats.Result {
	res := stats.Result{
		Metric:      m,
		Granularity: g,
		TestType:    stats.Levene,
		Stats:       groupStats(manual, ia),
	}
	lev, err := engine.Levene(manual, ia)
	if err != nil {
		return c.insufficient(res, err)
	}
	res.Statistic = lev.Statistic
	res.PValue = lev.P
	res.DoF = lev.DF2
	res.VarianceRatio = lev.Ratio
	res.Decision = lev.P >= c.alpha
	return res
}

// Select decides the location test for one metric and granularity from
// the normality and variance results already in rs.
func (c *Comparator) Select(rs *stats.ResultSet, m metrics.Metric, g stats.Granularity) stats.Selection {
	sel := stats.Selection{Metric: m, Granularity: g, NormalityDetermined: true}

	for _, grp := range metrics.Groups {
		r, ok := rs.Normality(m, g, grp)
		if !ok || r.Insufficient {
			sel.NormalityDetermined = false
			continue
		}
		switch grp {
		case metrics.GroupManual:
			sel.ManualNormal = r.Decision
		case metrics.GroupIA:
			sel.IANormal = r.Decision
		}
	}
	if v, ok := rs.Variance(m, g); ok && !v.Insufficient {
		sel.VarianceDetermined = true
		sel.EqualVariance = v.Decision
	}

	switch {
	case !sel.BothNormal():
		sel.Family, sel.Selected = stats.RankBased, stats.MannWhitneyU
	case sel.VarianceDetermined && sel.EqualVariance:
		sel.Family, sel.Selected = stats.Parametric, stats.StudentT
	default:
		sel.Family, sel.Selected = stats.Parametric, stats.WelchT
	}
	return sel
}

// Location appends the selection record and the selected location test
// per metric and granularity. Missing normality or variance results are
// computed first.
func (c *Comparator) Location(rs *stats.ResultSet, units Units) {
	for _, g := range c.granularities {
		for _, m := range c.metrics {
			manual := units.Values(g, metrics.GroupManual, m)
			ia := units.Values(g, metrics.GroupIA, m)

			for _, grp := range metrics.Groups {
				if _, ok := rs.Normality(m, g, grp); !ok {
					rs.Append(c.normality(m, g, grp, units.Values(g, grp, m)))
				}
			}
			if _, ok := rs.Variance(m, g); !ok {
				rs.Append(c.variance(m, g, manual, ia))
			}

			sel := c.Select(rs, m, g)
			rs.Selections = append(rs.Selections, sel)
			rs.Append(c.location(m, g, sel.Selected, manual, ia))
		}
	}
}

func (c *Comparator) location(m metrics.Metric, g stats.Granularity, test stats.TestType, manual, ia []float64) stats.Result {
	res := stats.Result{
		Metric:      m,
		Granularity: g,
		TestType:    test,
		Stats:       groupStats(manual, ia),
	}
	res.VarianceRatio = ratio(res.Manual().Variance(), res.IA().Variance())

	switch test {
	case stats.StudentT, stats.WelchT:
		var (
			t   engine.TTestResult
			err error
		)
		if test == stats.StudentT {
			t, err = engine.StudentTTest(manual, ia)
		} else {
			t, err = engine.WelchTTest(manual, ia)
		}
		if err != nil {
			return c.insufficient(res, err)
		}
		d := engine.CohensD(manual, ia)
		res.Statistic, res.PValue, res.DoF = t.T, t.P, t.DoF
		res.CohensD = d
		res.EffectSize = &d
	default:
		u, err := engine.MannWhitneyU(manual, ia)
		if err != nil {
			return c.insufficient(res, err)
		}
		r := u.R
		res.Statistic, res.PValue = u.U, u.P
		res.Z, res.R = u.Z, u.R
		res.CohensD = engine.CohensD(manual, ia)
		res.EffectSize = &r
	}
	res.Decision = res.PValue < c.alpha
	return res
}

// Concordance compares, per metric, the location result at the primary
// granularity with the one at every other analysed granularity.
func (c *Comparator) Concordance(rs *stats.ResultSet, _ Units) {
	for _, other := range c.granularities {
		if other == c.primary {
			continue
		}
		for _, m := range c.metrics {
			p, okP := rs.Location(m, c.primary)
			s, okS := rs.Location(m, other)
			con := stats.Concordance{
				Metric:     m,
				Primary:    c.primary,
				Secondary:  other,
				PrimaryP:   math.NaN(),
				SecondaryP: math.NaN(),
			}
			if okP {
				con.PrimaryTest, con.PrimaryP = p.TestType, p.PValue
			}
			if okS {
				con.SecondaryTest, con.SecondaryP = s.TestType, s.PValue
			}
			con.Determined = okP && okS && !p.Insufficient && !s.Insufficient
			if con.Determined {
				con.Concordant = (p.PValue < c.alpha) == (s.PValue < c.alpha)
			}
			rs.Concordance = append(rs.Concordance, con)
		}
	}
}

func (c *Comparator) insufficient(res stats.Result, err error) stats.Result {
	if !errors.Is(err, core.ErrInsufficientData) {
		c.logger.Warn("test failed", "test", res.TestType, "metric", res.Metric, "granularity", res.Granularity, "error", err)
	}
	res.Insufficient = true
	res.Statistic = math.NaN()
	res.PValue = math.NaN()
	res.Note = err.Error()
	return res
}

func describe(xs []float64) stats.GroupStats {
	g, err := engine.Describe(xs)
	if err != nil {
		nan := math.NaN()
		return stats.GroupStats{Mean: nan, Median: nan, StdDev: nan, Min: nan, Max: nan, Q1: nan, Q3: nan}
	}
	return g
}

func groupStats(manual, ia []float64) map[metrics.Group]stats.GroupStats {
	return map[metrics.Group]stats.GroupStats{
		metrics.GroupManual: describe(manual),
		metrics.GroupIA:     describe(ia),
	}
}

func ratio(a, b float64) float64 {
	hi, lo := math.Max(a, b), math.Min(a, b)
	switch {
	case math.IsNaN(hi) || math.IsNaN(lo):
		return math.NaN()
	case hi == 0:
		return 1
	case lo == 0:
		return math.Inf(1)
	}
	return hi / lo
}
