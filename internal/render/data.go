// Package render turns analysis results into PNG plots, an HTML report and
// CSV tables.
package render

import (
	"fmt"

	"github.com/banshee-data/embedtrack/internal/subspace"
)

// Data is a flattened, plot-ready view of a subspace.Result. Complex
// coordinates are split into real and imaginary columns.
type Data struct {
	Label      string
	SampleRate float64 // zero means the x axis is in samples
	Offset     int
	Complex    bool

	Columns   []string    // trajectory column names
	Coords    [][]float64 // [column][t]
	Distances []float64
	Sep       []float64
	SepImag   []float64 // complex domain only
}

// FromResult flattens r. sampleRate may be zero.
func FromResult[T subspace.Scalar](r *subspace.Result[T], label string, sampleRate float64) *Data {
	n := r.Len()
	d := &Data{
		Label:      label,
		SampleRate: sampleRate,
		Offset:     r.Offset,
		Distances:  append([]float64(nil), r.Distances...),
	}

	switch res := any(r).(type) {
	case *subspace.Result[float64]:
		d.Coords = make([][]float64, res.K)
		for j := range d.Coords {
			d.Columns = append(d.Columns, fmt.Sprintf("traj_%d", j))
			d.Coords[j] = make([]float64, n)
			for t := 0; t < n; t++ {
				d.Coords[j][t] = res.Trajectory[t][j]
			}
		}
		d.Sep = append([]float64(nil), res.Sep...)
	case *subspace.Result[complex128]:
		d.Complex = true
		d.Coords = make([][]float64, 2*res.K)
		for j := 0; j < res.K; j++ {
			d.Columns = append(d.Columns, fmt.Sprintf("traj_%d_re", j), fmt.Sprintf("traj_%d_im", j))
			re, im := make([]float64, n), make([]float64, n)
			for t := 0; t < n; t++ {
				re[t], im[t] = real(res.Trajectory[t][j]), imag(res.Trajectory[t][j])
			}
			d.Coords[2*j], d.Coords[2*j+1] = re, im
		}
		d.Sep = make([]float64, n)
		d.SepImag = make([]float64, n)
		for t, v := range res.Sep {
			d.Sep[t], d.SepImag[t] = real(v), imag(v)
		}
	}
	return d
}

// Len returns the number of samples.
func (d *Data) Len() int { return len(d.Distances) }

// X returns the x-axis position of output t, in seconds when the sample rate
// is known and in input samples otherwise.
func (d *Data) X(t int) float64 {
	i := float64(t + d.Offset)
	if d.SampleRate > 0 {
		return i / d.SampleRate
	}
	return i
}

// XLabel names the x axis.
func (d *Data) XLabel() string {
	if d.SampleRate > 0 {
		return "Time (s)"
	}
	return "Sample"
}

// Orbit returns the two coordinates drawn as the phase-space orbit: the
// first two trajectory coordinates for real data, or the real and
// imaginary parts of the first coordinate for complex data. ok is false
// for real data with k = 1.
func (d *Data) Orbit() (x, y []float64, ok bool) {
	if len(d.Coords) < 2 {
		return nil, nil, false
	}
	return d.Coords[0], d.Coords[1], true
}

// stride returns the step that keeps n points under maxPoints.
func stride(n, maxPoints int) int {
	if maxPoints <= 0 || n <= maxPoints {
		return 1
	}
	return (n + maxPoints - 1) / maxPoints
}
