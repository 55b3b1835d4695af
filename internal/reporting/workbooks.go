package reporting

import (
	"suitecompare/adapters/excel"
	"suitecompare/domain/metrics"
	"suitecompare/domain/stats"
	"suitecompare/internal/analysis"
)

var (
	colMetric  = excel.Column{Header: ColMetric, Width: 16}
	colN       = func(h string) excel.Column { return excel.Column{Header: h, Format: excel.FormatInteger} }
	colDecimal = func(h string) excel.Column { return excel.Column{Header: h, Format: excel.FormatDecimal} }
	colP       = excel.Column{Header: ColPValue, Format: excel.FormatPValue}
	colText    = func(h string, width float64) excel.Column { return excel.Column{Header: h, Width: width} }
)

var shapiroColumns = []excel.Column{
	colMetric,
	colText(ColGroup, 10),
	colN("N"),
	colDecimal("Mean"),
	colDecimal("Median"),
	colDecimal("Std Dev"),
	colDecimal("W"),
	colP,
	colText("Decision", 18),
	colText("Note", 40),
}

func shapiroRows(rs *stats.ResultSet, g stats.Granularity) [][]any {
	var rows [][]any
	for _, res := range rs.Filter(g, stats.ShapiroWilk) {
		s := res.Stats[res.Group]
		rows = append(rows, []any{
			string(res.Metric), string(res.Group), s.N, s.Mean, s.Median, s.StdDev,
			res.Statistic, res.PValue, res.DecisionLabel(), res.Note,
		})
	}
	return rows
}

var decisionColumns = []excel.Column{
	colMetric,
	colText("Granularity", 12),
	colText("Manual Normal", 14),
	colText("IA Normal", 12),
	colText("Normality Determined", 14),
	colText("Equal Variances", 14),
	colText("Family", 10),
	colText("Selected Test", 20),
}

func decisionRows(rs *stats.ResultSet) [][]any {
	var rows [][]any
	for _, s := range rs.Selections {
		equal := "n/a"
		if s.VarianceDetermined {
			equal = yesNo(s.EqualVariance)
		}
		rows = append(rows, []any{
			string(s.Metric), string(s.Granularity),
			yesNo(s.ManualNormal), yesNo(s.IANormal), yesNo(s.NormalityDetermined), equal,
			string(s.Family), s.Selected.Label(),
		})
	}
	return rows
}

var leveneColumns = []excel.Column{
	colMetric,
	colN("N Manual"),
	colN("N IA"),
	colDecimal("Variance Manual"),
	colDecimal("Variance IA"),
	colDecimal("Variance Ratio"),
	colDecimal("Statistic"),
	colN("df1"),
	colN("df2"),
	colP,
	colText("Decision", 18),
	colText("Recommended t-test", 20),
	colText("Note", 40),
}

func leveneRows(rs *stats.ResultSet, g stats.Granularity) [][]any {
	var rows [][]any
	for _, res := range rs.Filter(g, stats.Levene) {
		m, ia := res.Manual(), res.IA()
		recommended := stats.WelchT.Label()
		if !res.Insufficient && res.Decision {
			recommended = stats.StudentT.Label()
		}
		var df1 any
		if !res.Insufficient {
			df1 = 1
		}
		rows = append(rows, []any{
			string(res.Metric), m.N, ia.N, m.Variance(), ia.Variance(), res.VarianceRatio,
			res.Statistic, df1, dofCell(res), res.PValue, res.DecisionLabel(), recommended, res.Note,
		})
	}
	return rows
}

func dofCell(res stats.Result) any {
	if res.Insufficient {
		return nil
	}
	return res.DoF
}

var locationColumns = []excel.Column{
	colMetric,
	colText(ColTest, 20),
	colN("N Manual"),
	colN("N IA"),
	colDecimal("Mean Manual"),
	colDecimal("Mean IA"),
	colDecimal("Median Manual"),
	colDecimal("Median IA"),
	colDecimal("SD Manual"),
	colDecimal("SD IA"),
	colDecimal("Mean Difference"),
	colDecimal("Difference %"),
	colText("Direction", 14),
	colDecimal("Statistic"),
	colDecimal("df"),
	colDecimal("Z"),
	colP,
	colText("Decision", 16),
	colText("Stars", 6),
	colDecimal("Cohen's d"),
	colText("d Magnitude", 12),
	colDecimal("r"),
	colText("r Magnitude", 12),
	colDecimal("Effect Size"),
	colText("Note", 40),
}

func locationRows(rs *stats.ResultSet, g stats.Granularity) [][]any {
	var rows [][]any
	for _, res := range rs.Filter(g, stats.StudentT, stats.WelchT, stats.MannWhitneyU) {
		m, ia := res.Manual(), res.IA()
		var dof, z, r any
		var rMag string
		switch {
		case res.Insufficient:
		case res.TestType == stats.MannWhitneyU:
			z, r, rMag = res.Z, res.R, stats.InterpretR(res.R)
		default:
			dof = res.DoF
		}
		rows = append(rows, []any{
			string(res.Metric), res.TestType.Label(), m.N, ia.N,
			m.Mean, ia.Mean, m.Median, ia.Median, m.StdDev, ia.StdDev,
			res.MeanDifference(), res.PctDifference(), res.Direction(),
			res.Statistic, dof, z, res.PValue, res.DecisionLabel(), stats.SignificanceStars(res.PValue, rs.Alpha),
			res.CohensD, stats.InterpretCohensD(res.CohensD), r, rMag, optional(res.EffectSize), res.Note,
		})
	}
	return rows
}

var concordanceColumns = []excel.Column{
	colMetric,
	colText("Primary", 12),
	colText("Primary Test", 20),
	excel.Column{Header: "Primary p", Format: excel.FormatPValue},
	colText("Secondary", 12),
	colText("Secondary Test", 20),
	excel.Column{Header: "Secondary p", Format: excel.FormatPValue},
	excel.Column{Header: "p Difference", Format: excel.FormatPValue},
	colText("Concordant", 12),
	colText("Conclusion", 24),
}

func concordanceRows(rs *stats.ResultSet) [][]any {
	var rows [][]any
	for _, c := range rs.Concordance {
		rows = append(rows, []any{
			string(c.Metric), string(c.Primary), c.PrimaryTest.Label(), c.PrimaryP,
			string(c.Secondary), c.SecondaryTest.Label(), c.SecondaryP, c.Difference(),
			yesNo(c.Concordant), c.Conclusion(),
		})
	}
	return rows
}

var descriptiveColumns = []excel.Column{
	colMetric,
	colText("Granularity", 12),
	colText("Category", 12),
	colText(ColGroup, 10),
	colN("N"),
	colDecimal("Mean"),
	colDecimal("Median"),
	colDecimal("Std Dev"),
	colDecimal("Min"),
	colDecimal("Max"),
	colDecimal("Q1"),
	colDecimal("Q3"),
}

func descriptiveRows(ds []stats.Descriptive) [][]any {
	rows := make([][]any, 0, len(ds))
	for _, d := range ds {
		s := d.Stats
		rows = append(rows, []any{
			string(d.Metric), string(d.Granularity), string(d.Category), string(d.Group),
			s.N, s.Mean, s.Median, s.StdDev, s.Min, s.Max, s.Q1, s.Q3,
		})
	}
	return rows
}

// dataColumns mirror the consolidated cache layout
func dataColumns() []excel.Column {
	cols := make([]excel.Column, 0, len(metrics.AllMetrics)+4)
	for _, m := range metrics.AllMetrics {
		cols = append(cols, excel.Column{Header: string(m)})
	}
	return append(cols,
		colText("category", 12),
		colText("group", 10),
		colText("test_name", 40),
		colN("iteration"),
	)
}

func dataRows(records []metrics.Record) [][]any {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		row := make([]any, 0, len(metrics.AllMetrics)+4)
		for _, m := range metrics.AllMetrics {
			row = append(row, r.Value(m))
		}
		rows = append(rows, append(row, string(r.Category), string(r.Group), r.TestID, r.Iteration))
	}
	return rows
}

type sheet struct {
	name    string
	columns []excel.Column
	rows    [][]any
}

func buildWorkbook(sheets []sheet) (*excel.Workbook, error) {
	wb, err := excel.NewWorkbook()
	if err != nil {
		return nil, err
	}
	for _, s := range sheets {
		if err := wb.AddSheet(s.name, s.columns, s.rows); err != nil {
			_ = wb.Close()
			return nil, err
		}
	}
	return wb, nil
}

func (r *Reporter) writeSheets(name string, sheets []sheet) (string, error) {
	wb, err := buildWorkbook(sheets)
	if err != nil {
		return "", err
	}
	return r.saveWorkbook(wb, name)
}

// WriteNormality writes the Shapiro-Wilk results of every analysed
// granularity plus the test-selection decisions.
func (r *Reporter) WriteNormality(rs *stats.ResultSet) (string, error) {
	var sheets []sheet
	for _, g := range orderedGranularities(rs) {
		sheets = append(sheets, sheet{ShapiroSheet(g), shapiroColumns, shapiroRows(rs, g)})
	}
	sheets = append(sheets, sheet{SheetDecisions, decisionColumns, decisionRows(rs)})
	return r.writeSheets(NormalityWorkbook, sheets)
}

// WriteVariance writes the Levene results per granularity
func (r *Reporter) WriteVariance(rs *stats.ResultSet) (string, error) {
	var sheets []sheet
	for _, g := range orderedGranularities(rs) {
		sheets = append(sheets, sheet{LeveneSheet(g), leveneColumns, leveneRows(rs, g)})
	}
	return r.writeSheets(VarianceWorkbook, sheets)
}

// WriteLocation writes the location results, primary granularity first,
// and the concordance between granularities.
func (r *Reporter) WriteLocation(rs *stats.ResultSet) (string, error) {
	var sheets []sheet
	for _, g := range primaryFirst(rs) {
		sheets = append(sheets, sheet{LocationSheet(g), locationColumns, locationRows(rs, g)})
	}
	sheets = append(sheets, sheet{SheetConcordance, concordanceColumns, concordanceRows(rs)})
	return r.writeSheets(LocationWorkbook, sheets)
}

// WriteDescriptives writes the consolidated data, its per-category split
// and the descriptive statistics tables.
func (r *Reporter) WriteDescriptives(rs *stats.ResultSet, units analysis.Units) (string, error) {
	sheets := []sheet{{SheetData, dataColumns(), dataRows(units.Raw.Records)}}
	for _, cat := range metrics.Categories {
		subset := units.Raw.Filter(func(rec metrics.Record) bool { return rec.Category == cat })
		sheets = append(sheets, sheet{string(cat), dataColumns(), dataRows(subset.Records)})
	}
	for _, g := range orderedGranularities(rs) {
		sheets = append(sheets, sheet{DescriptivesSheet(g), descriptiveColumns, descriptiveRows(rs.DescriptivesFor(g, false))})
	}
	sheets = append(sheets, sheet{"Descriptives_By_Category", descriptiveColumns, descriptiveRows(rs.DescriptivesFor(stats.Raw, true))})
	return r.writeSheets(DescriptivesWorkbook, sheets)
}

// orderedGranularities returns raw before aggregated, as in the stage
// workbooks, keeping only the analysed ones.
func orderedGranularities(rs *stats.ResultSet) []stats.Granularity {
	var out []stats.Granularity
	for _, g := range []stats.Granularity{stats.Raw, stats.Aggregated} {
		for _, have := range rs.Granularities {
			if have == g {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

func primaryFirst(rs *stats.ResultSet) []stats.Granularity {
	out := []stats.Granularity{rs.Primary}
	for _, g := range rs.Granularities {
		if g != rs.Primary {
			out = append(out, g)
		}
	}
	return out
}
