package subspace

import (
	"context"
	"math"
	"testing"

	"github.com/banshee-data/embedtrack/internal/synth"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allModes = []Mode{ModeGradient, ModeQR, ModeSVD}

func noise(n int, seed uint64) []float64 {
	x := make([]float64, n)
	synth.AddNoise(x, 1, seed)
	return x
}

func complexNoise(n int, seed uint64) []complex128 {
	re, im := noise(n, seed), noise(n, seed+1)
	z := make([]complex128, n)
	for i := range z {
		z[i] = complex(re[i], im[i])
	}
	return z
}

func seeded(mode Mode) Config {
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.Seed = 7
	return cfg
}

func TestAnalyzeRejectsInvalidConfig(t *testing.T) {
	x := noise(50, 1)
	cfg := DefaultConfig()

	_, err := Analyze(context.Background(), x, []int{0, 1}, 3, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = Analyze(context.Background(), x, nil, 1, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.Gamma = 0
	_, err = Analyze(context.Background(), x, []int{0, 1}, 1, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Oversample = 0
	res, err := Analyze(context.Background(), x, []int{0, 1}, 1, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, res)
}

func TestAnalyzeShortSignal(t *testing.T) {
	_, err := Analyze(context.Background(), noise(3, 1), []int{0, 5}, 1, DefaultConfig())
	assert.ErrorIs(t, err, ErrShortSignal)

	// padding makes any length usable
	cfg := DefaultConfig()
	cfg.Pad = true
	res, err := Analyze(context.Background(), noise(3, 1), []int{0, 5}, 1, cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Len())

	// exactly the lookback yields an empty result
	res, err = Analyze(context.Background(), noise(5, 1), []int{0, 5}, 1, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
}

func TestOutputShapes(t *testing.T) {
	delays := []int{0, 1, 3, 6}
	x := noise(120, 2)
	for _, mode := range allModes {
		for _, pad := range []bool{false, true} {
			cfg := seeded(mode)
			cfg.Pad = pad
			res, err := Analyze(context.Background(), x, delays, 2, cfg)
			require.NoError(t, err)

			want := len(x) - 6
			offset := 6
			if pad {
				want, offset = len(x), 0
			}
			require.Equal(t, want, res.Len(), "mode %v pad %v", mode, pad)
			assert.Equal(t, offset, res.Offset)
			assert.Len(t, res.Trajectory, want)
			assert.Len(t, res.Bases, want)
			assert.Len(t, res.Sep, want)
			for i := range res.Trajectory {
				require.Len(t, res.Trajectory[i], 2)
				require.Len(t, res.Bases[i], 4*2)
			}
			assert.False(t, res.Interrupted)
		}
	}
}

func TestOrthonormalityExactModes(t *testing.T) {
	delays := []int{0, 1, 3, 5, 8}
	for _, mode := range []Mode{ModeQR, ModeSVD} {
		for _, corrected := range []bool{true, false} {
			cfg := seeded(mode)
			cfg.Corrected = corrected
			cfg.Delta = 0.5
			cfg.Oversample = 2

			rres, err := Analyze(context.Background(), noise(300, 3), delays, 3, cfg)
			require.NoError(t, err)
			for i := 0; i < rres.Len(); i++ {
				require.Less(t, rres.Orthogonality(i), 1e-8, "real %v corrected=%v step %d", mode, corrected, i)
			}

			cplx, err := Analyze(context.Background(), complexNoise(300, 4), delays, 3, cfg)
			require.NoError(t, err)
			for i := 0; i < cplx.Len(); i++ {
				require.Less(t, cplx.Orthogonality(i), 1e-8, "complex %v corrected=%v step %d", mode, corrected, i)
			}
		}
	}
}

func TestGradientStaysNearOrthonormal(t *testing.T) {
	cfg := seeded(ModeGradient)
	cfg.Normalize = true
	res, err := Analyze(context.Background(), noise(400, 5), []int{0, 2, 4, 6}, 2, cfg)
	require.NoError(t, err)
	for i := 0; i < res.Len(); i++ {
		require.Less(t, res.Orthogonality(i), 1e-2)
		require.GreaterOrEqual(t, res.Distances[i], -1e-3)
		require.False(t, math.IsNaN(res.Distances[i]))
	}
}

func TestDistancesNonNegative(t *testing.T) {
	for _, mode := range []Mode{ModeQR, ModeSVD} {
		for _, normalize := range []bool{false, true} {
			cfg := seeded(mode)
			cfg.Normalize = normalize
			res, err := Analyze(context.Background(), noise(300, 6), []int{0, 1, 2, 5}, 2, cfg)
			require.NoError(t, err)
			for i, d := range res.Distances {
				require.GreaterOrEqual(t, d, -1e-9, "%v normalize=%v step %d", mode, normalize, i)
				if normalize {
					require.LessOrEqual(t, d, 1.0)
				}
			}
		}
	}
}

func TestZeroSignalFixedPoint(t *testing.T) {
	delays := []int{0, 1, 4}
	for _, mode := range allModes {
		for _, normalize := range []bool{false, true} {
			cfg := seeded(mode)
			cfg.Normalize = normalize

			res, err := Analyze(context.Background(), make([]float64, 64), delays, 2, cfg)
			require.NoError(t, err)
			for i := 0; i < res.Len(); i++ {
				assert.Equal(t, []float64{0, 0}, res.Trajectory[i])
				assert.Equal(t, 0.0, res.Distances[i])
				assert.Equal(t, 0.0, res.Sep[i])
			}

			cres, err := Analyze(context.Background(), make([]complex128, 64), delays, 2, cfg)
			require.NoError(t, err)
			for i := 0; i < cres.Len(); i++ {
				assert.Equal(t, []complex128{0, 0}, cres.Trajectory[i])
				assert.Equal(t, 0.0, cres.Distances[i])
			}
		}
	}
}

func TestSinusoidTracesCircle(t *testing.T) {
	// A quarter-period delay makes y = (sin θ, −cos θ), a unit circle.
	x := synth.NewTone(4000, 100).Sine(1000)
	cfg := DefaultConfig()
	cfg.Randomize = false

	res, err := Analyze(context.Background(), x, []int{0, 10}, 2, cfg)
	require.NoError(t, err)
	require.Equal(t, 990, res.Len())
	for i := 200; i < res.Len(); i++ {
		assert.InDelta(t, 1, res.Radius(i), 1e-9)
		assert.InDelta(t, 0, res.Distances[i], 1e-9)
	}
}

func TestTwoDimensionalSignalIsCaptured(t *testing.T) {
	x := synth.NewTone(4000, 100).Sine(1000)
	for _, mode := range []Mode{ModeQR, ModeSVD} {
		cfg := DefaultConfig()
		cfg.Mode = mode
		cfg.Randomize = false
		cfg.Delta = 1
		cfg.Alpha = 0.99
		cfg.Normalize = true

		res, err := Analyze(context.Background(), x, []int{0, 3, 7, 10}, 2, cfg)
		require.NoError(t, err)
		s := Summarize(res, 0.1)
		assert.Less(t, s.MaxDistance, 1e-8, "mode %v", mode)
		assert.Less(t, s.MaxOrthogonality, 1e-8)
		assert.True(t, s.BasesRecorded)
		for i := 100; i < res.Len(); i++ {
			assert.InDelta(t, 0, res.Sep[i], 1e-7)
		}
	}
}

func TestAnalyticToneIsRankOne(t *testing.T) {
	z := synth.NewTone(1000, 37).Analytic(500)
	for _, mode := range []Mode{ModeQR, ModeSVD} {
		cfg := DefaultConfig()
		cfg.Mode = mode
		cfg.Randomize = false
		cfg.Delta = 1
		cfg.Normalize = true

		res, err := Analyze(context.Background(), z, []int{0, 1, 2, 3}, 1, cfg)
		require.NoError(t, err)
		for i := 10; i < res.Len(); i++ {
			assert.InDelta(t, 0, res.Distances[i], 1e-9, "mode %v step %d", mode, i)
		}
	}
}

func TestCancellationReturnsConsistentPrefix(t *testing.T) {
	x := noise(400, 8)
	delays := []int{0, 2, 5}
	for _, mode := range allModes {
		for _, pad := range []bool{false, true} {
			cfg := seeded(mode)
			cfg.Pad = pad

			full, err := Analyze(context.Background(), x, delays, 2, cfg)
			require.NoError(t, err)

			const stopAt = 123
			ctx, cancel := context.WithCancel(context.Background())
			cfg.Progress = func(done, total int) {
				if done == stopAt {
					cancel()
				}
			}
			part, err := Analyze(ctx, x, delays, 2, cfg)
			cancel()
			require.NoError(t, err)

			assert.True(t, part.Interrupted)
			require.Equal(t, stopAt, part.Len())
			assert.Len(t, part.Trajectory, stopAt)
			assert.Len(t, part.Bases, stopAt)
			assert.Len(t, part.Sep, stopAt)

			assert.Empty(t, cmp.Diff(full.Trajectory[:stopAt], part.Trajectory))
			assert.Empty(t, cmp.Diff(full.Bases[:stopAt], part.Bases))
			assert.Empty(t, cmp.Diff(full.Distances[:stopAt], part.Distances))
			assert.Empty(t, cmp.Diff(full.Sep[:stopAt], part.Sep))
		}
	}
}

func TestCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Analyze(ctx, noise(50, 9), []int{0, 1}, 1, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.True(t, res.Interrupted)
}

func TestSeedReproducibility(t *testing.T) {
	x := noise(80, 10)
	cfg := seeded(ModeQR)
	a, err := Analyze(context.Background(), x, []int{0, 1, 2}, 2, cfg)
	require.NoError(t, err)
	b, err := Analyze(context.Background(), x, []int{0, 1, 2}, 2, cfg)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(a.Bases, b.Bases))

	cfg.Seed = 8
	c, err := Analyze(context.Background(), x, []int{0, 1, 2}, 2, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, cmp.Diff(a.Bases[0], c.Bases[0]))
}

func TestDiscardBases(t *testing.T) {
	cfg := seeded(ModeSVD)
	cfg.DiscardBases = true
	res, err := Analyze(context.Background(), noise(60, 11), []int{0, 1, 2}, 2, cfg)
	require.NoError(t, err)
	assert.Nil(t, res.Bases)
	assert.Equal(t, 58, res.Len())
	assert.True(t, math.IsNaN(res.Orthogonality(0)))
	assert.False(t, Summarize(res, 0).BasesRecorded)
	assert.Equal(t, 0, Summarize(res, math.NaN()).Warmup)
	assert.Equal(t, 58, Summarize(res, 2).Warmup)
}

func TestProgressCalledPerSample(t *testing.T) {
	cfg := seeded(ModeQR)
	calls := 0
	last := 0
	cfg.Progress = func(done, total int) {
		calls++
		last = done
		assert.Equal(t, 47, total)
	}
	_, err := Analyze(context.Background(), noise(50, 12), []int{0, 3}, 1, cfg)
	require.NoError(t, err)
	assert.Equal(t, 47, calls)
	assert.Equal(t, 47, last)
}
