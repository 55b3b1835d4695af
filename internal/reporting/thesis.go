package reporting

import (
	"fmt"
	"strings"

	"suitecompare/adapters/excel"
	"suitecompare/domain/metrics"
	"suitecompare/domain/stats"
)

// Thesis table sheet names. Inferential tables use the primary granularity.
const (
	TableDescRaw        = "Table 4.1 Desc Raw"
	TableDescAggregated = "Table 4.2 Desc Aggregated"
	TableShapiro        = "Table 4.3 Shapiro-Wilk"
	TableLevene         = "Table 4.4 Levene"
	TableLocation       = "Table 4.5 Location"
	TableEffectSizes    = "Table 4.6 Effect Sizes"
	TableAssumptions    = "Table 4.7 Assumptions"
	TableRunMetadata    = "Run Metadata"
)

var thesisDescColumns = []excel.Column{
	colText("Metric", 26),
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

func thesisDescRows(ds []stats.Descriptive) [][]any {
	rows := make([][]any, 0, len(ds))
	for _, d := range ds {
		s := d.Stats
		rows = append(rows, []any{
			d.Metric.Label(), string(d.Group), s.N, s.Mean, s.Median, s.StdDev, s.Min, s.Max, s.Q1, s.Q3,
		})
	}
	return rows
}

func thesisShapiro(rs *stats.ResultSet) sheet {
	cols := []excel.Column{colText("Metric", 26), colText(ColGroup, 10), colN("N"), colDecimal("W"), colP, colText("Normal", 18)}
	var rows [][]any
	for _, res := range rs.Filter(rs.Primary, stats.ShapiroWilk) {
		rows = append(rows, []any{
			res.Metric.Label(), string(res.Group), res.Stats[res.Group].N, res.Statistic, res.PValue, res.DecisionLabel(),
		})
	}
	return sheet{TableShapiro, cols, rows}
}

func thesisLevene(rs *stats.ResultSet) sheet {
	cols := []excel.Column{colText("Metric", 26), colDecimal("Statistic"), colP, colText("Variances", 18), colText("Test to use", 20)}
	var rows [][]any
	for _, res := range rs.Filter(rs.Primary, stats.Levene) {
		use := stats.WelchT.Label()
		if !res.Insufficient && res.Decision {
			use = stats.StudentT.Label()
		}
		rows = append(rows, []any{res.Metric.Label(), res.Statistic, res.PValue, res.DecisionLabel(), use})
	}
	return sheet{TableLevene, cols, rows}
}

func thesisLocation(rs *stats.ResultSet) sheet {
	cols := []excel.Column{
		colText("Metric", 26), colN("N Manual"), colN("N IA"), colDecimal("Mean Manual"), colDecimal("Mean IA"),
		colDecimal("Statistic"), colDecimal("df"), colP, colText("Significant", 12), colText("Test used", 20),
	}
	var rows [][]any
	for _, m := range rs.Metrics {
		res, ok := rs.Location(m, rs.Primary)
		if !ok {
			continue
		}
		var dof any
		if res.TestType.Family() == stats.Parametric && !res.Insufficient {
			dof = res.DoF
		}
		rows = append(rows, []any{
			m.Label(), res.Manual().N, res.IA().N, res.Manual().Mean, res.IA().Mean,
			res.Statistic, dof, res.PValue, yesNo(res.Decision), res.TestType.Label(),
		})
	}
	return sheet{TableLocation, cols, rows}
}

func thesisEffects(rs *stats.ResultSet) sheet {
	cols := []excel.Column{
		colText("Metric", 26), colDecimal("Cohen's d"), colText("Magnitude", 12), colDecimal("r"),
		colText("r Magnitude", 12), colDecimal("Mean Difference"), colText("Direction", 14),
	}
	var rows [][]any
	for _, m := range rs.Metrics {
		res, ok := rs.Location(m, rs.Primary)
		if !ok {
			continue
		}
		var r any
		var rMag string
		if res.TestType == stats.MannWhitneyU && !res.Insufficient {
			r, rMag = res.R, stats.InterpretR(res.R)
		}
		rows = append(rows, []any{
			m.Label(), res.CohensD, stats.InterpretCohensD(res.CohensD), r, rMag, res.MeanDifference(), res.Direction(),
		})
	}
	return sheet{TableEffectSizes, cols, rows}
}

func thesisAssumptions(rs *stats.ResultSet) sheet {
	cols := []excel.Column{
		colText("Metric", 26),
		excel.Column{Header: "Shapiro p Manual", Format: excel.FormatPValue},
		excel.Column{Header: "Shapiro p IA", Format: excel.FormatPValue},
		excel.Column{Header: "Levene p", Format: excel.FormatPValue},
		colText("Assumptions Met", 16),
		colText("Test used", 20),
	}
	var rows [][]any
	for _, m := range rs.Metrics {
		sel, ok := rs.Selection(m, rs.Primary)
		if !ok {
			continue
		}
		pm, _ := rs.Normality(m, rs.Primary, metrics.GroupManual)
		pi, _ := rs.Normality(m, rs.Primary, metrics.GroupIA)
		lev, _ := rs.Variance(m, rs.Primary)
		met := "Partially"
		if sel.BothNormal() && sel.VarianceDetermined && sel.EqualVariance {
			met = "Yes"
		}
		rows = append(rows, []any{m.Label(), pm.PValue, pi.PValue, lev.PValue, met, sel.Selected.Label()})
	}
	return sheet{TableAssumptions, cols, rows}
}

func (r *Reporter) metadataSheet(rs *stats.ResultSet) sheet {
	cols := []excel.Column{colText("Key", 22), colText("Value", 70)}
	grans := make([]string, len(rs.Granularities))
	for i, g := range rs.Granularities {
		grans[i] = string(g)
	}
	ms := make([]string, len(rs.Metrics))
	for i, m := range rs.Metrics {
		ms[i] = string(m)
	}
	rows := [][]any{
		{"Alpha", rs.Alpha},
		{"Metrics", strings.Join(ms, ", ")},
		{"Granularities", strings.Join(grans, ", ")},
		{"Primary granularity", string(rs.Primary)},
	}
	if m := r.manifest; m != nil {
		rows = append(rows,
			[]any{"Run ID", m.RunID.String()},
			[]any{"Created at", m.CreatedAt.String()},
			[]any{"Code version", m.CodeVersion},
			[]any{"Config hash", m.ConfigHash.String()},
			[]any{"Dataset hash", m.DatasetHash.String()},
			[]any{"Records", m.Records},
			[]any{"Tests", m.Tests},
		)
		if len(m.Skipped) > 0 {
			rows = append(rows, []any{"Skipped sources", fmt.Sprintf("%d: %s", len(m.Skipped), strings.Join(m.Skipped, ", "))})
		}
	}
	return sheet{TableRunMetadata, cols, rows}
}

// WriteThesisTables writes the consolidated publication tables
func (r *Reporter) WriteThesisTables(rs *stats.ResultSet) (string, error) {
	sheets := []sheet{
		{TableDescRaw, thesisDescColumns, thesisDescRows(rs.DescriptivesFor(stats.Raw, false))},
		{TableDescAggregated, thesisDescColumns, thesisDescRows(rs.DescriptivesFor(stats.Aggregated, false))},
		thesisShapiro(rs),
		thesisLevene(rs),
		thesisLocation(rs),
		thesisEffects(rs),
		thesisAssumptions(rs),
		r.metadataSheet(rs),
	}
	return r.writeSheets(ThesisWorkbook, sheets)
}
