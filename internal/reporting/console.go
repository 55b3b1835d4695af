package reporting

import (
	"fmt"
	"io"

	"suitecompare/domain/metrics"
	"suitecompare/domain/stats"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Console renders result tables for a terminal
type Console struct {
	w         io.Writer
	useColors bool
}

// NewConsole creates a console renderer writing to w
func NewConsole(w io.Writer, useColors bool) *Console {
	return &Console{w: w, useColors: useColors}
}

func (c *Console) paint(attrs ...color.Attribute) func(...any) string {
	if !c.useColors {
		return fmt.Sprint
	}
	col := color.New(attrs...)
	col.EnableColor()
	return col.SprintFunc()
}

func (c *Console) heading(title string) error {
	bold := c.paint(color.Bold)
	_, err := fmt.Fprintf(c.w, "\n%s\n", bold(title))
	return err
}

func (c *Console) render(headers []string, data [][]string) error {
	table := tablewriter.NewWriter(c.w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// Normality prints the Shapiro-Wilk table of each granularity
func (c *Console) Normality(rs *stats.ResultSet) error {
	red, green, grey := c.paint(color.FgRed), c.paint(color.FgGreen), c.paint(color.FgHiBlack)
	for _, g := range orderedGranularities(rs) {
		if err := c.heading(fmt.Sprintf("Shapiro-Wilk (%s)", g.Label())); err != nil {
			return err
		}
		var data [][]string
		for _, res := range rs.Filter(g, stats.ShapiroWilk) {
			decision := res.DecisionLabel()
			switch {
			case res.Insufficient:
				decision = grey(decision)
			case res.Decision:
				decision = green(decision)
			default:
				decision = red(decision)
			}
			data = append(data, []string{
				string(res.Metric), string(res.Group), fmt.Sprint(res.Stats[res.Group].N),
				formatFloat(res.Statistic, 4), formatP(res.PValue), decision,
			})
		}
		if err := c.render([]string{"Metric", "Group", "N", "W", "p-value", "Decision"}, data); err != nil {
			return err
		}
	}
	return nil
}

// Variance prints the Levene table of each granularity
func (c *Console) Variance(rs *stats.ResultSet) error {
	yellow := c.paint(color.FgYellow)
	for _, g := range orderedGranularities(rs) {
		if err := c.heading(fmt.Sprintf("Levene (%s)", g.Label())); err != nil {
			return err
		}
		var data [][]string
		for _, res := range rs.Filter(g, stats.Levene) {
			decision := res.DecisionLabel()
			if !res.Insufficient && !res.Decision {
				decision = yellow(decision)
			}
			data = append(data, []string{
				string(res.Metric), formatFloat(res.Manual().Variance(), 4), formatFloat(res.IA().Variance(), 4),
				formatFloat(res.VarianceRatio, 2), formatFloat(res.Statistic, 4), formatP(res.PValue), decision,
			})
		}
		headers := []string{"Metric", "Var Manual", "Var IA", "Ratio", "F", "p-value", "Decision"}
		if err := c.render(headers, data); err != nil {
			return err
		}
	}
	return nil
}

// Location prints the location tests of each granularity, primary first
func (c *Console) Location(rs *stats.ResultSet) error {
	red, green := c.paint(color.FgRed, color.Bold), c.paint(color.FgGreen)
	for _, g := range primaryFirst(rs) {
		if err := c.heading(fmt.Sprintf("Location tests (%s)", g.Label())); err != nil {
			return err
		}
		var data [][]string
		for _, m := range rs.Metrics {
			res, ok := rs.Location(m, g)
			if !ok {
				continue
			}
			p := formatP(res.PValue) + " " + stats.SignificanceStars(res.PValue, rs.Alpha)
			if res.Decision {
				p = red(p)
			} else {
				p = green(p)
			}
			data = append(data, []string{
				string(m), res.TestType.Label(),
				formatFloat(res.Manual().Mean, 4), formatFloat(res.IA().Mean, 4),
				statisticLabel(res), p, effectLabel(res), res.Direction(),
			})
		}
		headers := []string{"Metric", "Test", "Mean Manual", "Mean IA", "Statistic", "p-value", "Effect", "Direction"}
		if err := c.render(headers, data); err != nil {
			return err
		}
	}
	if len(rs.Concordance) == 0 {
		return nil
	}

	if err := c.heading("Concordance"); err != nil {
		return err
	}
	yellow := c.paint(color.FgYellow)
	var data [][]string
	for _, con := range rs.Concordance {
		verdict := con.Conclusion()
		if con.Determined && !con.Concordant {
			verdict = yellow(verdict)
		}
		data = append(data, []string{
			string(con.Metric), formatP(con.PrimaryP), formatP(con.SecondaryP), verdict,
		})
	}
	return c.render([]string{"Metric", string(rs.Primary) + " p", "other p", "Conclusion"}, data)
}

// Descriptives prints the pooled descriptive statistics per granularity
func (c *Console) Descriptives(rs *stats.ResultSet) error {
	for _, g := range orderedGranularities(rs) {
		if err := c.heading(fmt.Sprintf("Descriptive statistics (%s)", g.Label())); err != nil {
			return err
		}
		if err := c.render(descriptiveHeaders(), descriptiveTable(rs.DescriptivesFor(g, false))); err != nil {
			return err
		}
	}
	if err := c.heading("Descriptive statistics by category (Raw)"); err != nil {
		return err
	}
	return c.render(descriptiveHeaders(), descriptiveTable(rs.DescriptivesFor(stats.Raw, true)))
}

func descriptiveHeaders() []string {
	return []string{"Metric", "Category", "Group", "N", "Mean", "Median", "SD", "Min", "Max"}
}

func descriptiveTable(ds []stats.Descriptive) [][]string {
	data := make([][]string, 0, len(ds))
	for _, d := range ds {
		s := d.Stats
		cat := string(d.Category)
		if cat == "" {
			cat = "All"
		}
		data = append(data, []string{
			string(d.Metric), cat, string(d.Group), fmt.Sprint(s.N),
			formatFloat(s.Mean, 4), formatFloat(s.Median, 4), formatFloat(s.StdDev, 4),
			formatFloat(s.Min, 4), formatFloat(s.Max, 4),
		})
	}
	return data
}

// Dataset prints the consolidated record counts per group and category
func (c *Console) Dataset(ds *metrics.Dataset, tests int) error {
	if err := c.heading(fmt.Sprintf("Consolidated dataset: %d records, %d tests", ds.Len(), tests)); err != nil {
		return err
	}
	var data [][]string
	for _, grp := range metrics.Groups {
		for _, cat := range metrics.Categories {
			n := 0
			for _, r := range ds.Records {
				if r.Group == grp && r.Category == cat {
					n++
				}
			}
			data = append(data, []string{string(grp), string(cat), fmt.Sprint(n)})
		}
	}
	return c.render([]string{"Group", "Category", "Records"}, data)
}
