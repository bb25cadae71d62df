package render

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/embedtrack/internal/fsutil"
	"github.com/banshee-data/embedtrack/internal/subspace"
)

const maxReportPoints = 8000

// WriteReport renders an interactive HTML page with the orbit scatter (colored
// by time) and line charts of distance and sep. summary may be nil.
func WriteReport(w io.Writer, d *Data, summary *subspace.Summary) error {
	page := components.NewPage()

	if orbit := orbitChart(d, summary); orbit != nil {
		page.AddCharts(orbit)
	}
	page.AddCharts(
		lineChart(d, "Distance", "distance", d.Distances),
		lineChart(d, "Separated component", "sep", d.Sep),
	)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// WriteReportFile renders the report to path.
func WriteReportFile(fsys fsutil.FileSystem, path string, d *Data, summary *subspace.Summary) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteReport(f, d, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func orbitChart(d *Data, summary *subspace.Summary) *charts.Scatter {
	xs, ys, ok := d.Orbit()
	if !ok {
		return nil
	}
	step := stride(len(xs), maxReportPoints)
	data := make([]opts.ScatterData, 0, len(xs)/step+1)
	pad := 0.0
	for t := 0; t < len(xs); t += step {
		data = append(data, opts.ScatterData{Value: []interface{}{xs[t], ys[t], d.X(t)}})
		pad = math.Max(pad, math.Max(math.Abs(xs[t]), math.Abs(ys[t])))
	}
	pad = math.Ceil(pad*11) / 10
	if pad == 0 {
		pad = 1
	}

	subtitle := fmt.Sprintf("samples=%d stride=%d", len(xs), step)
	if summary != nil {
		subtitle = fmt.Sprintf("%s mean_radius=%.3g mean_distance=%.3g", subtitle, summary.MeanRadius, summary.MeanDistance)
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: d.Label, Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: d.Label + " trajectory", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: d.Columns[0], NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: d.Columns[1], NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(d.X(0)),
			Max:        float32(d.X(max(len(xs)-1, 0))),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("trajectory", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	return scatter
}

func lineChart(d *Data, title, name string, ys []float64) *charts.Line {
	step := stride(len(ys), maxReportPoints)
	xs := make([]string, 0, len(ys)/step+1)
	data := make([]opts.LineData, 0, len(ys)/step+1)
	for t := 0; t < len(ys); t += step {
		xs = append(xs, fmt.Sprintf("%.4g", d.X(t)))
		data = append(data, opts.LineData{Value: ys[t]})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s %s", d.Label, title)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: d.XLabel(), NameLocation: "middle", NameGap: 25}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(xs).AddSeries(name, data)
	return line
}
