package reporting

import (
	"bytes"
	"fmt"
	"strings"

	"suitecompare/domain/metrics"
	"suitecompare/domain/run"
	"suitecompare/domain/stats"
	"suitecompare/internal/artifact"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"gopkg.in/yaml.v3"
)

const summaryTitle = "Manual vs IA test suite comparison"

// Markdown renders the run summary: one table per granularity with the
// selected test and its outcome per metric, then the concordance.
func Markdown(rs *stats.ResultSet, manifest *run.Manifest) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", summaryTitle)

	if manifest != nil {
		fmt.Fprintf(&b, "- Run: `%s`\n", manifest.RunID)
		fmt.Fprintf(&b, "- Created: %s\n", manifest.CreatedAt)
		fmt.Fprintf(&b, "- Records: %d raw, %d tests\n", manifest.Records, manifest.Tests)
		if len(manifest.Skipped) > 0 {
			fmt.Fprintf(&b, "- Skipped sources: %d\n", len(manifest.Skipped))
		}
	}
	fmt.Fprintf(&b, "- Metrics: %s\n", strings.Join(metricLabels(rs.Metrics), ", "))
	fmt.Fprintf(&b, "- Significance level: %g\n", rs.Alpha)
	fmt.Fprintf(&b, "- Primary granularity: %s\n\n", rs.Primary)

	for _, g := range primaryFirst(rs) {
		fmt.Fprintf(&b, "## %s granularity\n\n", g.Label())
		b.WriteString("| Metric | Manual mean | IA mean | Test | Statistic | p-value | Decision | Effect size | Direction |\n")
		b.WriteString("|---|---:|---:|---|---|---:|---|---|---|\n")
		for _, m := range rs.Metrics {
			res, ok := rs.Location(m, g)
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				m.Label(),
				formatFloat(res.Manual().Mean, 4), formatFloat(res.IA().Mean, 4),
				res.TestType.Label(), statisticLabel(res), formatP(res.PValue),
				res.DecisionLabel(), effectLabel(res), res.Direction())
		}
		b.WriteString("\n")
		writeNotes(&b, rs, g)
	}

	if len(rs.Concordance) > 0 {
		b.WriteString("## Concordance\n\n")
		b.WriteString("| Metric | Primary p | Secondary p | Conclusion |\n")
		b.WriteString("|---|---:|---:|---|\n")
		for _, c := range rs.Concordance {
			fmt.Fprintf(&b, "| %s | %s (%s) | %s (%s) | %s |\n",
				c.Metric.Label(), formatP(c.PrimaryP), c.Primary, formatP(c.SecondaryP), c.Secondary, c.Conclusion())
		}
		b.WriteString("\n")
	}
	return b.Bytes()
}

// writeNotes lists the procedures that degraded to insufficient data
func writeNotes(b *bytes.Buffer, rs *stats.ResultSet, g stats.Granularity) {
	var notes []string
	for _, res := range rs.Filter(g) {
		if !res.Insufficient {
			continue
		}
		who := string(res.Metric)
		if res.Group != "" {
			who += " / " + string(res.Group)
		}
		notes = append(notes, fmt.Sprintf("- %s, %s: %s", res.TestType.Label(), who, res.Note))
	}
	if len(notes) == 0 {
		return
	}
	b.WriteString("Insufficient data:\n\n")
	b.WriteString(strings.Join(notes, "\n"))
	b.WriteString("\n\n")
}

// HTML renders the markdown summary as a standalone page
func HTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: summaryTitle,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(md, p, renderer)
}

// WriteSummary writes summary.md and its HTML rendering
func (r *Reporter) WriteSummary(rs *stats.ResultSet) error {
	md := Markdown(rs, r.manifest)
	if err := artifact.WriteBytes(r.path(SummaryMarkdown), md); err != nil {
		return err
	}
	r.record(run.ArtifactSummary, SummaryMarkdown)

	if err := artifact.WriteBytes(r.path(SummaryHTML), HTML(md)); err != nil {
		return err
	}
	r.record(run.ArtifactSummary, SummaryHTML)
	return nil
}

// WriteManifest writes manifest.yaml. It is written last and does not list
// itself.
func (r *Reporter) WriteManifest() (string, error) {
	if r.manifest == nil {
		return "", fmt.Errorf("reporting: no manifest to write")
	}
	data, err := yaml.Marshal(r.manifest)
	if err != nil {
		return "", fmt.Errorf("reporting: encode manifest: %w", err)
	}
	path := r.path(ManifestFile)
	if err := artifact.WriteBytes(path, data); err != nil {
		return "", err
	}
	r.logger.Info("wrote manifest", "path", path, "run_id", r.manifest.RunID, "artifacts", len(r.manifest.Artifacts))
	return path, nil
}

// metricLabels returns display names for a metric list
func metricLabels(ms []metrics.Metric) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Label()
	}
	return out
}
