// Package reporting serializes a comparison run into its output artifacts:
// one workbook per stage, the consolidated thesis tables, box-plot charts,
// a markdown/HTML summary and the run manifest. Reporting only reads the
// ResultSet; it never changes a number.
package reporting

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"suitecompare/adapters/excel"
	"suitecompare/domain/run"
	"suitecompare/domain/stats"
	"suitecompare/internal/logging"
)

// Artifact file names, relative to the output directory
const (
	NormalityWorkbook    = "01_normality.xlsx"
	VarianceWorkbook     = "02_variance.xlsx"
	LocationWorkbook     = "03_location.xlsx"
	DescriptivesWorkbook = "04_descriptives.xlsx"
	ThesisWorkbook       = "05_consolidated.xlsx"
	SummaryMarkdown      = "summary.md"
	SummaryHTML          = "summary.html"
	ManifestFile         = "manifest.yaml"
	PlotDir              = "plots"
)

// Sheet names shared with the verification stage
const (
	SheetDecisions   = "Decisions"
	SheetConcordance = "Concordance"
	SheetData        = "Data"
)

// ShapiroSheet names the normality sheet of a granularity
func ShapiroSheet(g stats.Granularity) string { return "Shapiro_" + g.Label() }

// LeveneSheet names the variance sheet of a granularity
func LeveneSheet(g stats.Granularity) string { return "Levene_" + g.Label() }

// LocationSheet names the location sheet of a granularity
func LocationSheet(g stats.Granularity) string { return "Location_" + g.Label() }

// DescriptivesSheet names the pooled descriptives sheet of a granularity
func DescriptivesSheet(g stats.Granularity) string { return "Descriptives_" + g.Label() }

// Column headers the verification stage looks up by name
const (
	ColMetric = "Metric"
	ColGroup  = "Group"
	ColTest   = "Test"
	ColPValue = "p-value"
)

// PlotPath is the chart file of a granularity, relative to the output dir
func PlotPath(g stats.Granularity) string {
	return filepath.Join(PlotDir, "boxplots_"+string(g)+".png")
}

// Reporter writes artifacts under one output directory and records each
// one in the run manifest.
type Reporter struct {
	outDir   string
	manifest *run.Manifest
	logger   *slog.Logger
}

// NewReporter creates a reporter. manifest may be nil when the caller does
// not track artifacts.
func NewReporter(outDir string, manifest *run.Manifest) *Reporter {
	return &Reporter{
		outDir:   outDir,
		manifest: manifest,
		logger:   logging.New("reporting"),
	}
}

func (r *Reporter) path(name string) string {
	return filepath.Join(r.outDir, name)
}

func (r *Reporter) record(kind run.ArtifactKind, name string) {
	r.logger.Info("wrote artifact", "path", r.path(name))
	if r.manifest != nil {
		r.manifest.Add(kind, filepath.ToSlash(name))
	}
}

// saveWorkbook writes wb to name and records it
func (r *Reporter) saveWorkbook(wb *excel.Workbook, name string) (string, error) {
	path := r.path(name)
	if err := wb.Save(path); err != nil {
		return "", err
	}
	r.record(run.ArtifactWorkbook, name)
	return path, nil
}

// optional converts an effect size pointer to a cell value
func optional(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// formatP renders a p-value for text output
func formatP(p float64) string {
	switch {
	case math.IsNaN(p):
		return "n/a"
	case p < 0.0001:
		return "< 0.0001"
	}
	return fmt.Sprintf("%.4f", p)
}

func formatFloat(x float64, prec int) string {
	if math.IsNaN(x) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, x)
}

// effectLabel renders the location effect size with its magnitude
func effectLabel(res stats.Result) string {
	if res.EffectSize == nil {
		return "n/a"
	}
	if res.TestType == stats.MannWhitneyU {
		return fmt.Sprintf("r = %.3f (%s)", res.R, stats.InterpretR(res.R))
	}
	return fmt.Sprintf("d = %.3f (%s)", res.CohensD, stats.InterpretCohensD(res.CohensD))
}

// statisticLabel renders the test statistic with its conventional symbol
func statisticLabel(res stats.Result) string {
	if res.Insufficient {
		return "insufficient data"
	}
	switch res.TestType {
	case stats.MannWhitneyU:
		return fmt.Sprintf("U = %.1f", res.Statistic)
	case stats.StudentT, stats.WelchT:
		return fmt.Sprintf("t(%.1f) = %.3f", res.DoF, res.Statistic)
	case stats.ShapiroWilk:
		return fmt.Sprintf("W = %.4f", res.Statistic)
	case stats.Levene:
		return fmt.Sprintf("F = %.4f", res.Statistic)
	}
	return formatFloat(res.Statistic, 4)
}

// annotation is the one-line result shown under a chart panel
func annotation(res stats.Result) string {
	if res.Insufficient {
		return "insufficient data"
	}
	p := "p = " + formatP(res.PValue)
	if strings.HasPrefix(formatP(res.PValue), "<") {
		p = "p " + formatP(res.PValue)
	}
	parts := []string{statisticLabel(res), p}
	if res.EffectSize != nil {
		parts = append(parts, effectLabel(res))
	}
	return strings.Join(parts, ", ")
}
