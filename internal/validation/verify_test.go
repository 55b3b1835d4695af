package validation

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"suitecompare/domain/metrics"
	"suitecompare/domain/stats"
	"suitecompare/internal/analysis"
	"suitecompare/internal/errors"
	"suitecompare/internal/reporting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testUnits() analysis.Units {
	ds := &metrics.Dataset{}
	var sums metrics.Summaries
	for gi, grp := range metrics.Groups {
		for k := 0; k < 5; k++ {
			id := fmt.Sprintf("%s_T%d", grp, k)
			v := float64(40+15*gi) + float64(k*k)
			r := metrics.Record{TestID: id, Group: grp, Category: metrics.Categories[k%2], Iteration: 1}
			for _, m := range metrics.AllMetrics {
				r.SetValue(m, v)
			}
			ds.Records = append(ds.Records, r)
			sums = append(sums, metrics.TestSummary{
				TestID: id, Group: grp, Category: r.Category, Iterations: 1,
				InstructionCoverage: v, BranchCoverage: v, MutationScore: v, TimeSeconds: v,
			})
		}
	}
	return analysis.NewUnits(ds, sums)
}

// publish writes the three stage workbooks verification reads
func publish(t *testing.T, dir string, units analysis.Units) {
	t.Helper()
	rs, err := analysis.NewComparator(analysis.Options{}).Compare(context.Background(), units)
	require.NoError(t, err)

	r := reporting.NewReporter(dir, nil)
	_, err = r.WriteNormality(rs)
	require.NoError(t, err)
	_, err = r.WriteVariance(rs)
	require.NoError(t, err)
	_, err = r.WriteLocation(rs)
	require.NoError(t, err)
}

func TestVerify_Clean(t *testing.T) {
	dir := t.TempDir()
	units := testUnits()
	publish(t, dir, units)

	report, err := NewVerifier(dir, analysis.NewComparator(analysis.Options{}), 0).Verify(context.Background(), units)
	require.NoError(t, err)

	assert.True(t, report.OK(), "mismatches %v problems %v", report.Mismatches, report.Problems)
	// per metric and granularity: two normality rows, one Levene, one location
	assert.Len(t, report.Checks, len(metrics.AllMetrics)*2*4)
	assert.Equal(t, DefaultTolerance, report.Tolerance)
	assert.Less(t, report.MaxDifference(), 1e-12)
}

func TestVerify_DetectsEditedPValue(t *testing.T) {
	dir := t.TempDir()
	units := testUnits()
	publish(t, dir, units)

	path := filepath.Join(dir, reporting.LocationWorkbook)
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	sheet := reporting.LocationSheet(stats.Aggregated)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	pCol := -1
	for i, h := range rows[0] {
		if h == reporting.ColPValue {
			pCol = i + 1
		}
	}
	require.Positive(t, pCol)
	cell, err := excelize.CoordinatesToCellName(pCol, 2)
	require.NoError(t, err)
	require.NoError(t, f.SetCellFloat(sheet, cell, 0.5, -1, 64))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	report, err := NewVerifier(dir, analysis.NewComparator(analysis.Options{}), 0).Verify(context.Background(), units)
	require.NoError(t, err)

	assert.False(t, report.OK())
	require.Len(t, report.Mismatches, 1)
	got := report.Mismatches[0]
	assert.Equal(t, stats.Aggregated, got.Granularity)
	assert.Equal(t, metrics.AllMetrics[0], got.Metric)
	assert.Equal(t, 0.5, got.Recorded)
	assert.Contains(t, got.String(), reporting.LocationWorkbook)
}

func TestVerify_MissingWorkbook(t *testing.T) {
	_, err := NewVerifier(t.TempDir(), analysis.NewComparator(analysis.Options{}), 0).Verify(context.Background(), testUnits())
	require.Error(t, err)
	assert.True(t, errors.IsMissingSource(err))
}

func TestVerify_MissingRowsAreProblems(t *testing.T) {
	units := testUnits()
	c := analysis.NewComparator(analysis.Options{Metrics: []metrics.Metric{metrics.MutationScore}})

	// A narrower publish leaves rows the full comparator expects missing.
	narrowDir := t.TempDir()
	rs, err := c.Compare(context.Background(), units)
	require.NoError(t, err)
	r := reporting.NewReporter(narrowDir, nil)
	_, err = r.WriteNormality(rs)
	require.NoError(t, err)
	_, err = r.WriteVariance(rs)
	require.NoError(t, err)
	_, err = r.WriteLocation(rs)
	require.NoError(t, err)

	report, err := NewVerifier(narrowDir, analysis.NewComparator(analysis.Options{}), 0).Verify(context.Background(), units)
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.NotEmpty(t, report.Problems)
	assert.Empty(t, report.Mismatches)
}

func TestCheck_Difference(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, 0.0, Check{Recorded: nan, Recomputed: nan}.Difference())
	assert.True(t, math.IsInf(Check{Recorded: nan, Recomputed: 0.2}.Difference(), 1))
	assert.InDelta(t, 0.1, Check{Recorded: 0.3, Recomputed: 0.2}.Difference(), 1e-12)
}

func TestParsePValue(t *testing.T) {
	p, err := parsePValue(" 0.0123 ")
	require.NoError(t, err)
	assert.Equal(t, 0.0123, p)

	p, err = parsePValue("")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(p))

	_, err = parsePValue("< 0.001")
	assert.Error(t, err)
}
