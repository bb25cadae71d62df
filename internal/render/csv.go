package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/banshee-data/embedtrack/internal/fsutil"
)

// WriteCSV writes one row per output sample: sample index, time (when the
// sample rate is known), trajectory columns, distance and sep.
func WriteCSV(w io.Writer, d *Data) error {
	cw := csv.NewWriter(w)

	header := []string{"sample"}
	if d.SampleRate > 0 {
		header = append(header, "time_s")
	}
	header = append(header, d.Columns...)
	header = append(header, "distance")
	if d.Complex {
		header = append(header, "sep_re", "sep_im")
	} else {
		header = append(header, "sep")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	row := make([]string, 0, len(header))
	for t := 0; t < d.Len(); t++ {
		row = append(row[:0], strconv.Itoa(t+d.Offset))
		if d.SampleRate > 0 {
			row = append(row, f(d.X(t)))
		}
		for _, c := range d.Coords {
			row = append(row, f(c[t]))
		}
		row = append(row, f(d.Distances[t]), f(d.Sep[t]))
		if d.Complex {
			row = append(row, f(d.SepImag[t]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", t, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the CSV table to path.
func WriteCSVFile(fsys fsutil.FileSystem, path string, d *Data) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteCSV(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
