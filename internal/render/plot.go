package render

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/embedtrack/internal/fsutil"
)

// ErrNoOrbit is returned by OrbitPlot for real results of rank 1.
var ErrNoOrbit = errors.New("render: trajectory has no second coordinate")

const (
	maxPlotPoints = 4000
	orbitSegments = 64
)

// OrbitPlot draws the phase-space orbit, colored from dark to light over time.
func OrbitPlot(d *Data) (*plot.Plot, error) {
	xs, ys, ok := d.Orbit()
	if !ok {
		return nil, ErrNoOrbit
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - Trajectory", d.Label)
	if d.Complex {
		p.X.Label.Text = "Re(c0)"
		p.Y.Label.Text = "Im(c0)"
	} else {
		p.X.Label.Text = "c0"
		p.Y.Label.Text = "c1"
	}

	n := len(xs)
	if n == 0 {
		emptyRange(p)
		return p, nil
	}
	step := stride(n, maxPlotPoints)
	pts := make(plotter.XYs, 0, n/step+1)
	for t := 0; t < n; t += step {
		pts = append(pts, plotter.XY{X: xs[t], Y: ys[t]})
	}

	segs := min(orbitSegments, len(pts))
	colors := gradient(segs)
	for s := 0; s < segs; s++ {
		lo := s * len(pts) / segs
		hi := (s+1)*len(pts)/segs + 1 // overlap by one point so segments join
		hi = min(hi, len(pts))
		if hi-lo < 2 {
			if lo < len(pts) {
				sc, err := plotter.NewScatter(pts[lo:hi])
				if err != nil {
					return nil, err
				}
				sc.Color = colors[s]
				p.Add(sc)
			}
			continue
		}
		line, err := plotter.NewLine(pts[lo:hi])
		if err != nil {
			return nil, err
		}
		line.Color = colors[s]
		line.Width = vg.Points(1)
		p.Add(line)
	}
	return p, nil
}

// SeriesPlot draws ys against output time.
func SeriesPlot(d *Data, title, ylabel string, ys []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - %s", d.Label, title)
	p.X.Label.Text = d.XLabel()
	p.Y.Label.Text = ylabel

	if len(ys) == 0 {
		emptyRange(p)
		return p, nil
	}
	step := stride(len(ys), maxPlotPoints)
	pts := make(plotter.XYs, 0, len(ys)/step+1)
	for t := 0; t < len(ys); t += step {
		pts = append(pts, plotter.XY{X: d.X(t), Y: ys[t]})
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{R: 49, G: 104, B: 142, A: 255}
	line.Width = vg.Points(1)
	p.Add(line)
	return p, nil
}

// emptyRange gives a plot with no data a unit range on both axes.
func emptyRange(p *plot.Plot) {
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
}

// WritePNGs writes orbit.png (when there is an orbit), distances.png and
// sep.png into dir and returns the paths written.
func WritePNGs(fsys fsutil.FileSystem, dir string, d *Data) ([]string, error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create plot directory: %w", err)
	}

	type named struct {
		file string
		p    *plot.Plot
		w, h vg.Length
	}
	var plots []named

	orbit, err := OrbitPlot(d)
	switch {
	case err == nil:
		plots = append(plots, named{"orbit.png", orbit, 6 * vg.Inch, 6 * vg.Inch})
	case !errors.Is(err, ErrNoOrbit):
		return nil, fmt.Errorf("failed to build orbit plot: %w", err)
	}

	dist, err := SeriesPlot(d, "Distance", "Residual energy", d.Distances)
	if err != nil {
		return nil, fmt.Errorf("failed to build distance plot: %w", err)
	}
	plots = append(plots, named{"distances.png", dist, 14 * vg.Inch, 4 * vg.Inch})

	sep, err := SeriesPlot(d, "Separated component", "sep", d.Sep)
	if err != nil {
		return nil, fmt.Errorf("failed to build sep plot: %w", err)
	}
	plots = append(plots, named{"sep.png", sep, 14 * vg.Inch, 4 * vg.Inch})

	var written []string
	for _, np := range plots {
		path := filepath.Join(dir, np.file)
		if err := savePNG(fsys, path, np.p, np.w, np.h); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func savePNG(fsys fsutil.FileSystem, path string, p *plot.Plot, w, h vg.Length) error {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
