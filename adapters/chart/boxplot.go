// Package chart renders the group comparison box plots as PNG images.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"suitecompare/domain/metrics"
	"suitecompare/internal/artifact"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Panel is one box-plot cell: a metric's values per group and the line of
// test results printed under the axis.
type Panel struct {
	Metric     metrics.Metric
	Title      string
	Values     map[metrics.Group][]float64
	Annotation string
}

// Options sizes the rendered grid
type Options struct {
	Columns int
	// CellWidth and CellHeight are per panel.
	CellWidth  vg.Length
	CellHeight vg.Length
	DPI        int
}

// DefaultOptions is a 2-column grid of 12x9 cm panels at 150 dpi
func DefaultOptions() Options {
	return Options{Columns: 2, CellWidth: 12 * vg.Centimeter, CellHeight: 9 * vg.Centimeter, DPI: 150}
}

var groupFill = map[metrics.Group]color.Color{
	metrics.GroupManual: color.NRGBA{R: 0x4C, G: 0x72, B: 0xB0, A: 0x90},
	metrics.GroupIA:     color.NRGBA{R: 0xDD, G: 0x84, B: 0x52, A: 0x90},
}

const boxWidth = 40

// Render draws the panels as a grid and writes the PNG to w
func Render(w io.Writer, panels []Panel, opts Options) error {
	if len(panels) == 0 {
		return fmt.Errorf("chart: no panels to render")
	}
	if opts.Columns <= 0 {
		opts.Columns = 2
	}
	if opts.DPI <= 0 {
		opts.DPI = DefaultOptions().DPI
	}
	rows := (len(panels) + opts.Columns - 1) / opts.Columns

	plots := make([][]*plot.Plot, rows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, opts.Columns)
		for c := range plots[r] {
			i := r*opts.Columns + c
			if i >= len(panels) {
				plots[r][c] = plot.New()
				continue
			}
			p, err := panelPlot(panels[i])
			if err != nil {
				return fmt.Errorf("chart: panel %s: %w", panels[i].Metric, err)
			}
			plots[r][c] = p
		}
	}

	img := vgimg.NewWith(
		vgimg.UseWH(opts.CellWidth*vg.Length(opts.Columns), opts.CellHeight*vg.Length(rows)),
		vgimg.UseDPI(opts.DPI),
		vgimg.UseBackgroundColor(color.White),
	)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      opts.Columns,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			plots[r][c].Draw(canvases[r][c])
		}
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("chart: encode png: %w", err)
	}
	return nil
}

// WritePNG renders the panels to path atomically
func WritePNG(path string, panels []Panel, opts Options) error {
	return artifact.WriteFile(path, func(w io.Writer) error {
		return Render(w, panels, opts)
	})
}

func panelPlot(panel Panel) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	if p.Title.Text == "" {
		p.Title.Text = panel.Metric.Label()
	}
	p.Y.Label.Text = panel.Metric.Label()
	p.X.Label.Text = panel.Annotation

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil
	p.Add(grid)

	var names []string
	for i, grp := range metrics.Groups {
		label := grp.String()
		values := finite(panel.Values[grp])
		if len(values) == 0 {
			names = append(names, label+" (n=0)")
			continue
		}
		names = append(names, fmt.Sprintf("%s (n=%d)", label, len(values)))

		box, err := plotter.NewBoxPlot(vg.Points(boxWidth), float64(i), values)
		if err != nil {
			return nil, err
		}
		box.FillColor = groupFill[grp]
		box.BoxStyle.Color = color.Black
		p.Add(box)
	}
	p.NominalX(names...)
	return p, nil
}

// finite drops NaN and infinite values, which the box plotter rejects
func finite(xs []float64) plotter.Values {
	out := make(plotter.Values, 0, len(xs))
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		out = append(out, x)
	}
	return out
}
