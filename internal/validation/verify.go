// Package validation re-checks published result workbooks against a fresh
// computation from the dataset.
package validation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"suitecompare/adapters/excel"
	"suitecompare/domain/metrics"
	"suitecompare/domain/stats"
	"suitecompare/internal/analysis"
	"suitecompare/internal/errors"
	"suitecompare/internal/logging"
	"suitecompare/internal/reporting"
)

// DefaultTolerance is the largest accepted gap between a recorded and a
// recomputed p-value.
const DefaultTolerance = 1e-4

// Check compares one recorded p-value with its recomputation
type Check struct {
	Workbook    string
	Sheet       string
	Metric      metrics.Metric
	Granularity stats.Granularity
	TestType    stats.TestType
	// Group is set for normality rows.
	Group      metrics.Group
	Recorded   float64
	Recomputed float64
}

// Difference is the absolute gap. Two missing values agree; one missing
// value never does.
func (c Check) Difference() float64 {
	rn, cn := math.IsNaN(c.Recorded), math.IsNaN(c.Recomputed)
	switch {
	case rn && cn:
		return 0
	case rn || cn:
		return math.Inf(1)
	}
	return math.Abs(c.Recorded - c.Recomputed)
}

// String identifies the checked row
func (c Check) String() string {
	s := fmt.Sprintf("%s/%s %s %s", c.Workbook, c.Sheet, c.TestType.Label(), c.Metric)
	if c.Group != "" {
		s += " " + string(c.Group)
	}
	return s
}

// Report is the outcome of a verification run
type Report struct {
	Tolerance  float64
	Checks     []Check
	Mismatches []Check
	// Problems are rows or sheets that could not be compared at all.
	Problems []string
}

// OK reports whether every recorded p-value matched and nothing was missing
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0 && len(r.Problems) == 0
}

// MaxDifference is the largest finite gap seen
func (r *Report) MaxDifference() float64 {
	var worst float64
	for _, c := range r.Checks {
		if d := c.Difference(); !math.IsInf(d, 0) && d > worst {
			worst = d
		}
	}
	return worst
}

func (r *Report) add(c Check) {
	r.Checks = append(r.Checks, c)
	if c.Difference() > r.Tolerance {
		r.Mismatches = append(r.Mismatches, c)
	}
}

func (r *Report) problem(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Verifier recomputes a comparison and checks it against the workbooks in
// an output directory.
type Verifier struct {
	outDir     string
	comparator *analysis.Comparator
	tolerance  float64
	logger     *slog.Logger
}

// NewVerifier creates a verifier. A non-positive tolerance selects
// DefaultTolerance.
func NewVerifier(outDir string, comparator *analysis.Comparator, tolerance float64) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{
		outDir:     outDir,
		comparator: comparator,
		tolerance:  tolerance,
		logger:     logging.New("verification"),
	}
}

// Verify recomputes every test from units and compares the p-values
// recorded in the normality, variance and location workbooks. A missing
// workbook is a MISSING_SOURCE error; missing rows are reported as problems.
func (v *Verifier) Verify(ctx context.Context, units analysis.Units) (*Report, error) {
	rs, err := v.comparator.Compare(ctx, units)
	if err != nil {
		return nil, errors.Wrap(err, "verification: recompute")
	}

	report := &Report{Tolerance: v.tolerance}
	for _, g := range rs.Granularities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := v.checkNormality(report, rs, g); err != nil {
			return nil, err
		}
		if err := v.checkVariance(report, rs, g); err != nil {
			return nil, err
		}
		if err := v.checkLocation(report, rs, g); err != nil {
			return nil, err
		}
	}

	v.logger.Info("verification complete",
		"checks", len(report.Checks),
		"mismatches", len(report.Mismatches),
		"problems", len(report.Problems),
		"max_difference", report.MaxDifference())
	return report, nil
}

// recorded indexes a result sheet by its key columns
type recorded struct {
	workbook, sheet string
	rows            map[string]excel.RawRowData
}

func (v *Verifier) readSheet(report *Report, workbook, sheet string, keyCols ...string) (*recorded, error) {
	table, err := excel.ReadSheet(filepath.Join(v.outDir, workbook), sheet)
	if errors.IsMissingSource(err) {
		return nil, errors.Wrap(err, "verification")
	}
	if err != nil {
		report.problem("%s/%s: %v", workbook, sheet, err)
		return nil, nil
	}
	for _, col := range append(keyCols, reporting.ColPValue) {
		if !table.HasColumn(col) {
			report.problem("%s/%s: missing column %q", workbook, sheet, col)
			return nil, nil
		}
	}

	rec := &recorded{workbook: workbook, sheet: sheet, rows: make(map[string]excel.RawRowData, len(table.Rows))}
	for _, row := range table.Rows {
		parts := make([]string, len(keyCols))
		for i, col := range keyCols {
			parts[i] = row[col]
		}
		rec.rows[strings.Join(parts, "|")] = row
	}
	return rec, nil
}

func (v *Verifier) compare(report *Report, rec *recorded, key string, res stats.Result) {
	row, ok := rec.rows[key]
	if !ok {
		report.problem("%s/%s: no row for %s", rec.workbook, rec.sheet, key)
		return
	}
	p, err := parsePValue(row[reporting.ColPValue])
	if err != nil {
		report.problem("%s/%s %s: %v", rec.workbook, rec.sheet, key, err)
		return
	}
	report.add(Check{
		Workbook:    rec.workbook,
		Sheet:       rec.sheet,
		Metric:      res.Metric,
		Granularity: res.Granularity,
		TestType:    res.TestType,
		Group:       res.Group,
		Recorded:    p,
		Recomputed:  res.PValue,
	})
}

func (v *Verifier) checkNormality(report *Report, rs *stats.ResultSet, g stats.Granularity) error {
	rec, err := v.readSheet(report, reporting.NormalityWorkbook, reporting.ShapiroSheet(g), reporting.ColMetric, reporting.ColGroup)
	if rec == nil {
		return err
	}
	for _, res := range rs.Filter(g, stats.ShapiroWilk) {
		v.compare(report, rec, string(res.Metric)+"|"+string(res.Group), res)
	}
	return nil
}

func (v *Verifier) checkVariance(report *Report, rs *stats.ResultSet, g stats.Granularity) error {
	rec, err := v.readSheet(report, reporting.VarianceWorkbook, reporting.LeveneSheet(g), reporting.ColMetric)
	if rec == nil {
		return err
	}
	for _, res := range rs.Filter(g, stats.Levene) {
		v.compare(report, rec, string(res.Metric), res)
	}
	return nil
}

func (v *Verifier) checkLocation(report *Report, rs *stats.ResultSet, g stats.Granularity) error {
	rec, err := v.readSheet(report, reporting.LocationWorkbook, reporting.LocationSheet(g), reporting.ColMetric)
	if rec == nil {
		return err
	}
	for _, m := range rs.Metrics {
		res, ok := rs.Location(m, g)
		if !ok {
			continue
		}
		if row, ok := rec.rows[string(m)]; ok && row[reporting.ColTest] != res.TestType.Label() {
			report.problem("%s/%s %s: recorded test %q, recomputed %q",
				rec.workbook, rec.sheet, m, row[reporting.ColTest], res.TestType.Label())
		}
		v.compare(report, rec, string(m), res)
	}
	return nil
}

// parsePValue reads a p-value cell; an empty cell is a missing value
func parsePValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("p-value %q is not numeric", s)
	}
	return p, nil
}
