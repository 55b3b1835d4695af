package dataset

import (
	"suitecompare/domain/metrics"
	"suitecompare/internal/errors"
)

// Aggregate collapses records into one summary per TestID holding the
// arithmetic mean of every metric. Summaries are ordered by the first
// appearance of each TestID. Group and category must be constant within a
// TestID; a conflict fails with a SCHEMA error naming both labels.
func Aggregate(ds *metrics.Dataset) (metrics.Summaries, error) {
	if ds.Len() == 0 {
		return metrics.Summaries{}, nil
	}

	type acc struct {
		summary metrics.TestSummary
		sums    map[metrics.Metric]float64
	}
	index := make(map[string]int)
	var accs []*acc

	for _, r := range ds.Records {
		i, ok := index[r.TestID]
		if !ok {
			i = len(accs)
			index[r.TestID] = i
			accs = append(accs, &acc{
				summary: metrics.TestSummary{TestID: r.TestID, Group: r.Group, Category: r.Category},
				sums:    make(map[metrics.Metric]float64, len(metrics.AllMetrics)),
			})
		}
		a := accs[i]
		if a.summary.Group != r.Group {
			return nil, errors.Schema("test %q has records in both group %q and group %q",
				r.TestID, a.summary.Group, r.Group)
		}
		if a.summary.Category != r.Category {
			return nil, errors.Schema("test %q has records in both category %q and category %q",
				r.TestID, a.summary.Category, r.Category)
		}
		a.summary.Iterations++
		for _, m := range metrics.AllMetrics {
			a.sums[m] += r.Value(m)
		}
	}

	out := make(metrics.Summaries, len(accs))
	for i, a := range accs {
		s := a.summary
		n := float64(s.Iterations)
		s.InstructionCoverage = a.sums[metrics.InstructionCoverage] / n
		s.BranchCoverage = a.sums[metrics.BranchCoverage] / n
		s.MutationScore = a.sums[metrics.MutationScore] / n
		s.TimeSeconds = a.sums[metrics.TimeSeconds] / n
		out[i] = s
	}
	return out, nil
}
