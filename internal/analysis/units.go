package analysis

import (
	"suitecompare/domain/metrics"
	"suitecompare/domain/stats"
)

// valueSource yields the per-group values of a metric for one analysis unit
type valueSource interface {
	Values(g metrics.Group, m metrics.Metric) []float64
}

// Units holds the two granularities a comparison can run on: the raw
// iteration records and their per-test summaries.
type Units struct {
	Raw        *metrics.Dataset
	Aggregated metrics.Summaries
}

// NewUnits pairs a dataset with its aggregation
func NewUnits(raw *metrics.Dataset, aggregated metrics.Summaries) Units {
	if raw == nil {
		raw = &metrics.Dataset{}
	}
	return Units{Raw: raw, Aggregated: aggregated}
}

func (u Units) source(g stats.Granularity) valueSource {
	if g == stats.Raw {
		return u.Raw
	}
	return u.Aggregated
}

// Values returns the group's values of a metric at a granularity
func (u Units) Values(g stats.Granularity, grp metrics.Group, m metrics.Metric) []float64 {
	return u.source(g).Values(grp, m)
}

// N returns the number of observations at a granularity
func (u Units) N(g stats.Granularity) int {
	if g == stats.Raw {
		return u.Raw.Len()
	}
	return len(u.Aggregated)
}
