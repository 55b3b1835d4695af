package stats

import (
	"suitecompare/domain/metrics"
)

// ResultSet is the append-only collection of everything a comparison run
// produced. It is serialized by the reporting stage.
type ResultSet struct {
	Alpha         float64
	Metrics       []metrics.Metric
	Granularities []Granularity
	Primary       Granularity

	Results      []Result
	Descriptives []Descriptive
	Selections   []Selection
	Concordance  []Concordance
}

// NewResultSet creates an empty result set for the given run parameters
func NewResultSet(alpha float64, ms []metrics.Metric, grans []Granularity, primary Granularity) *ResultSet {
	return &ResultSet{
		Alpha:         alpha,
		Metrics:       append([]metrics.Metric(nil), ms...),
		Granularities: append([]Granularity(nil), grans...),
		Primary:       primary,
	}
}

// Append records a result
func (rs *ResultSet) Append(r Result) {
	rs.Results = append(rs.Results, r)
}

// Filter returns the results matching the test types at a granularity, in
// insertion order. An empty granularity matches every granularity.
func (rs *ResultSet) Filter(g Granularity, types ...TestType) []Result {
	want := make(map[TestType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []Result
	for _, r := range rs.Results {
		if g != "" && r.Granularity != g {
			continue
		}
		if len(want) > 0 && !want[r.TestType] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Normality returns the normality result for one group, if present
func (rs *ResultSet) Normality(m metrics.Metric, g Granularity, grp metrics.Group) (Result, bool) {
	for _, r := range rs.Results {
		if r.TestType == ShapiroWilk && r.Metric == m && r.Granularity == g && r.Group == grp {
			return r, true
		}
	}
	return Result{}, false
}

// Variance returns the variance-homogeneity result, if present
func (rs *ResultSet) Variance(m metrics.Metric, g Granularity) (Result, bool) {
	for _, r := range rs.Results {
		if r.TestType == Levene && r.Metric == m && r.Granularity == g {
			return r, true
		}
	}
	return Result{}, false
}

// Location returns the selected location-test result, if present
func (rs *ResultSet) Location(m metrics.Metric, g Granularity) (Result, bool) {
	for _, r := range rs.Results {
		if r.TestType.Family() != "" && r.Metric == m && r.Granularity == g {
			return r, true
		}
	}
	return Result{}, false
}

// Selection returns the test-selection record, if present
func (rs *ResultSet) Selection(m metrics.Metric, g Granularity) (Selection, bool) {
	for _, s := range rs.Selections {
		if s.Metric == m && s.Granularity == g {
			return s, true
		}
	}
	return Selection{}, false
}

// DescriptivesFor returns the descriptive rows at a granularity. When
// byCategory is true only per-category rows are returned, otherwise only
// pooled rows.
func (rs *ResultSet) DescriptivesFor(g Granularity, byCategory bool) []Descriptive {
	var out []Descriptive
	for _, d := range rs.Descriptives {
		if d.Granularity != g {
			continue
		}
		if (d.Category != "") != byCategory {
			continue
		}
		out = append(out, d)
	}
	return out
}
