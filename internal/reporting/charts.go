package reporting

import (
	"fmt"

	"suitecompare/adapters/chart"
	"suitecompare/domain/metrics"
	"suitecompare/domain/run"
	"suitecompare/domain/stats"
	"suitecompare/internal/analysis"
)

// Panels builds one box-plot panel per metric at a granularity, annotated
// with the selected location test.
func Panels(rs *stats.ResultSet, units analysis.Units, g stats.Granularity) []chart.Panel {
	panels := make([]chart.Panel, 0, len(rs.Metrics))
	for _, m := range rs.Metrics {
		p := chart.Panel{
			Metric: m,
			Title:  fmt.Sprintf("%s (%s, N=%d)", m.Label(), g.Label(), units.N(g)),
			Values: make(map[metrics.Group][]float64, len(metrics.Groups)),
		}
		for _, grp := range metrics.Groups {
			p.Values[grp] = units.Values(g, grp, m)
		}
		if res, ok := rs.Location(m, g); ok {
			p.Annotation = res.TestType.Label() + ": " + annotation(res)
		}
		panels = append(panels, p)
	}
	return panels
}

// WriteCharts writes one box-plot grid per analysed granularity
func (r *Reporter) WriteCharts(rs *stats.ResultSet, units analysis.Units, opts chart.Options) ([]string, error) {
	var paths []string
	for _, g := range primaryFirst(rs) {
		name := PlotPath(g)
		path := r.path(name)
		if err := chart.WritePNG(path, Panels(rs, units, g), opts); err != nil {
			return paths, err
		}
		r.record(run.ArtifactChart, name)
		paths = append(paths, path)
	}
	return paths, nil
}
