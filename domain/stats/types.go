package stats

import (
	"fmt"
	"strings"

	"suitecompare/domain/metrics"
)

// DefaultAlpha is the significance threshold used by every decision rule
const DefaultAlpha = 0.05

// Granularity selects whether a test runs over raw iteration records or
// over per-test averaged summaries.
type Granularity string

const (
	Raw        Granularity = "raw"
	Aggregated Granularity = "aggregated"
)

// ParseGranularity validates a granularity name
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case Raw:
		return Raw, nil
	case Aggregated:
		return Aggregated, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// Label returns the sheet/table suffix for the granularity
func (g Granularity) Label() string {
	switch g {
	case Raw:
		return "Raw"
	case Aggregated:
		return "Aggregated"
	}
	return string(g)
}

// TestType identifies the statistical procedure that produced a result
type TestType string

const (
	ShapiroWilk  TestType = "shapiro_wilk"
	Levene       TestType = "levene"
	StudentT     TestType = "student_t"
	WelchT       TestType = "welch_t"
	MannWhitneyU TestType = "mann_whitney_u"
)

var testTypeLabels = map[TestType]string{
	ShapiroWilk:  "Shapiro-Wilk",
	Levene:       "Levene",
	StudentT:     "t-Student (pooled)",
	WelchT:       "t-Student Welch",
	MannWhitneyU: "Mann-Whitney U",
}

// Label returns the display name of the test
func (t TestType) Label() string {
	if l, ok := testTypeLabels[t]; ok {
		return l
	}
	return string(t)
}

// Family reports which location-test family a test belongs to
func (t TestType) Family() TestFamily {
	switch t {
	case StudentT, WelchT:
		return Parametric
	case MannWhitneyU:
		return RankBased
	}
	return ""
}

// TestFamily groups location tests by their distributional assumptions
type TestFamily string

const (
	Parametric TestFamily = "t-test"
	RankBased  TestFamily = "rank"
)

// GroupStats are the descriptive statistics of one group's values
type GroupStats struct {
	N      int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
	Q1     float64
	Q3     float64
}

// Variance returns the sample variance
func (g GroupStats) Variance() float64 {
	return g.StdDev * g.StdDev
}

// Result is the output of one test procedure for one metric at one
// granularity. Results are appended to a ResultSet and never mutated.
//
// Decision means "normal" for Shapiro-Wilk, "equal variances" for Levene
// and "significant difference" for location tests.
type Result struct {
	Metric      metrics.Metric
	Granularity Granularity
	TestType    TestType
	// Group is set for per-group procedures (normality).
	Group metrics.Group

	Stats map[metrics.Group]GroupStats

	Statistic    float64
	PValue       float64
	Decision     bool
	Insufficient bool
	Note         string

	// EffectSize is Cohen's d for t-tests and r for the rank test.
	EffectSize *float64

	DoF           float64
	Z             float64
	R             float64
	CohensD       float64
	VarianceRatio float64
}

// Manual returns the Manual group's descriptive statistics
func (r Result) Manual() GroupStats { return r.Stats[metrics.GroupManual] }

// IA returns the IA group's descriptive statistics
func (r Result) IA() GroupStats { return r.Stats[metrics.GroupIA] }

// MeanDifference is mean(Manual) - mean(IA)
func (r Result) MeanDifference() float64 {
	return r.Manual().Mean - r.IA().Mean
}

// PctDifference is the mean difference relative to the IA mean, in percent
func (r Result) PctDifference() float64 {
	ia := r.IA().Mean
	if ia == 0 {
		return 0
	}
	return r.MeanDifference() / ia * 100
}

// Direction labels the sign of the mean difference
func (r Result) Direction() string {
	return Direction(r.MeanDifference())
}

// DecisionLabel renders the decision in the wording of the result tables
func (r Result) DecisionLabel() string {
	if r.Insufficient {
		return "Insufficient data"
	}
	switch r.TestType {
	case ShapiroWilk:
		if r.Decision {
			return "Normal"
		}
		return "Not normal"
	case Levene:
		if r.Decision {
			return "Equal variances"
		}
		return "Unequal variances"
	}
	if r.Decision {
		return "Significant"
	}
	return "Not significant"
}

// Descriptive is one row of a descriptive-statistics table
type Descriptive struct {
	Metric      metrics.Metric
	Granularity Granularity
	Group       metrics.Group
	// Category is empty for tables that pool both categories.
	Category metrics.Category
	Stats    GroupStats
}

// Selection records how the location test for a metric was chosen
type Selection struct {
	Metric      metrics.Metric
	Granularity Granularity

	ManualNormal bool
	IANormal     bool
	// NormalityDetermined is false when a group had too few observations.
	NormalityDetermined bool
	EqualVariance       bool
	VarianceDetermined  bool

	Family   TestFamily
	Selected TestType
}

// BothNormal reports whether the t-test family was justified
func (s Selection) BothNormal() bool {
	return s.NormalityDetermined && s.ManualNormal && s.IANormal
}

// Concordance compares the location decision for a metric at two
// granularities.
type Concordance struct {
	Metric metrics.Metric

	Primary       Granularity
	PrimaryTest   TestType
	PrimaryP      float64
	Secondary     Granularity
	SecondaryTest TestType
	SecondaryP    float64

	Concordant bool
	// Determined is false when either side had insufficient data.
	Determined bool
}

// Difference is the absolute gap between the two p-values
func (c Concordance) Difference() float64 {
	d := c.PrimaryP - c.SecondaryP
	if d < 0 {
		return -d
	}
	return d
}

// Conclusion renders the concordance verdict
func (c Concordance) Conclusion() string {
	switch {
	case !c.Determined:
		return "Insufficient data"
	case c.Concordant:
		return "Identical conclusions"
	}
	return "Requires analysis"
}
