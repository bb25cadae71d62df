package render

import (
	"bytes"
	"context"
	"encoding/csv"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/embedtrack/internal/fsutil"
	"github.com/banshee-data/embedtrack/internal/subspace"
	"github.com/banshee-data/embedtrack/internal/synth"
)

func realRun(t *testing.T, k int) *subspace.Result[float64] {
	t.Helper()
	cfg := subspace.DefaultConfig()
	cfg.Randomize = false
	x := synth.NewTone(4000, 100).Sine(600)
	res, err := subspace.Analyze(context.Background(), x, []int{0, 5, 10}, k, cfg)
	require.NoError(t, err)
	return res
}

func complexRun(t *testing.T) *subspace.Result[complex128] {
	t.Helper()
	cfg := subspace.DefaultConfig()
	cfg.Randomize = false
	cfg.Pad = true
	x := synth.NewTone(4000, 100).Analytic(300)
	res, err := subspace.Analyze(context.Background(), x, []int{0, 10}, 1, cfg)
	require.NoError(t, err)
	return res
}

func TestFromResultReal(t *testing.T) {
	res := realRun(t, 2)
	d := FromResult(res, "sine", 4000)

	assert.False(t, d.Complex)
	assert.Equal(t, []string{"traj_0", "traj_1"}, d.Columns)
	assert.Equal(t, res.Len(), d.Len())
	assert.Equal(t, res.Trajectory[7][1], d.Coords[1][7])
	assert.Equal(t, res.Sep, d.Sep)
	assert.Nil(t, d.SepImag)
	// First output corresponds to input sample 10.
	assert.InDelta(t, 10.0/4000, d.X(0), 1e-15)
	assert.Equal(t, "Time (s)", d.XLabel())

	_, _, ok := FromResult(realRun(t, 1), "k1", 0).Orbit()
	assert.False(t, ok)
}

func TestFromResultComplex(t *testing.T) {
	res := complexRun(t)
	d := FromResult(res, "tone", 0)

	assert.True(t, d.Complex)
	assert.Equal(t, []string{"traj_0_re", "traj_0_im"}, d.Columns)
	assert.Equal(t, real(res.Trajectory[50][0]), d.Coords[0][50])
	assert.Equal(t, imag(res.Trajectory[50][0]), d.Coords[1][50])
	assert.Equal(t, imag(res.Sep[50]), d.SepImag[50])
	assert.Equal(t, 50.0, d.X(50))
	assert.Equal(t, "Sample", d.XLabel())

	_, _, ok := d.Orbit()
	assert.True(t, ok)
}

func TestWritePNGs(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()

	paths, err := WritePNGs(mfs, "/out/sine", FromResult(realRun(t, 2), "sine", 4000))
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/sine/orbit.png", "/out/sine/distances.png", "/out/sine/sep.png"}, paths)
	for _, p := range paths {
		data, err := mfs.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")), p)
	}

	paths, err = WritePNGs(mfs, "/out/k1", FromResult(realRun(t, 1), "k1", 4000))
	require.NoError(t, err)
	assert.Equal(t, []string{"/out/k1/distances.png", "/out/k1/sep.png"}, paths)
}

func TestOrbitPlotRank1(t *testing.T) {
	_, err := OrbitPlot(FromResult(realRun(t, 1), "k1", 0))
	assert.ErrorIs(t, err, ErrNoOrbit)
}

func TestWriteReport(t *testing.T) {
	res := realRun(t, 2)
	summary := subspace.Summarize(res, 0.1)

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, FromResult(res, "sine-report", 4000), &summary))
	html := buf.String()
	assert.Contains(t, html, "echarts")
	assert.Contains(t, html, "sine-report trajectory")
	assert.Contains(t, html, "sine-report Distance")
	assert.Contains(t, html, "#fde725")

	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, WriteReportFile(mfs, "/report.html", FromResult(realRun(t, 1), "k1", 0), nil))
	data, err := mfs.ReadFile("/report.html")
	require.NoError(t, err)
	assert.NotContains(t, string(data), "k1 trajectory")
	assert.Contains(t, string(data), "k1 Separated component")
}

func TestWriteCSV(t *testing.T) {
	res := realRun(t, 2)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, FromResult(res, "sine", 4000)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, res.Len()+1)
	assert.Equal(t, []string{"sample", "time_s", "traj_0", "traj_1", "distance", "sep"}, rows[0])
	assert.Equal(t, "10", rows[1][0])
	assert.Equal(t, "0.0025", rows[1][1])

	mfs := fsutil.NewMemoryFileSystem()
	cres := complexRun(t)
	require.NoError(t, WriteCSVFile(mfs, "/c.csv", FromResult(cres, "tone", 0)))
	data, _ := mfs.ReadFile("/c.csv")
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, cres.Len()+1)
	assert.Equal(t, "sample,traj_0_re,traj_0_im,distance,sep_re,sep_im", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0,"))
}

func TestGradient(t *testing.T) {
	assert.Nil(t, gradient(0))
	assert.Equal(t, []color.Color{hexColor("#440154")}, gradient(1))

	g := gradient(19)
	require.Len(t, g, 19)
	assert.Equal(t, hexColor("#440154"), g[0])
	assert.Equal(t, hexColor("#fde725"), g[18])
	// Every other color of 19 lands exactly on a stop.
	assert.Equal(t, hexColor("#26828e"), g[8])
}

func TestStride(t *testing.T) {
	assert.Equal(t, 1, stride(10, 100))
	assert.Equal(t, 1, stride(100, 100))
	assert.Equal(t, 2, stride(101, 100))
	assert.Equal(t, 1, stride(5, 0))
}
