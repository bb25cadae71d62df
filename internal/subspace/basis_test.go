package subspace

import (
	"context"
	"math"
	"math/cmplx"
	"testing"

	"github.com/banshee-data/embedtrack/internal/cla"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

func orthError(a mat.Matrix) float64 {
	_, k := a.Dims()
	var g mat.Dense
	g.Mul(a.T(), a)
	for i := 0; i < k; i++ {
		g.Set(i, i, g.At(i, i)-1)
	}
	return mat.Norm(&g, 2)
}

func frobDiff(a, b mat.Matrix) float64 {
	var d mat.Dense
	d.Sub(a, b)
	return mat.Norm(&d, 2)
}

func complexDiff(a, b cblas128.General) float64 {
	var sum float64
	for i := range a.Data {
		d := cmplx.Abs(a.Data[i] - b.Data[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func TestInitialBasis(t *testing.T) {
	plain := initialBasisReal(5, 3, false, 0)
	for i := 0; i < 5; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			assert.Equal(t, want, plain.At(i, j))
		}
	}

	a := initialBasisReal(5, 3, true, 99)
	assert.Less(t, orthError(a), 1e-10)
	assert.Greater(t, frobDiff(a, plain), 1e-3)
	assert.Equal(t, 0.0, frobDiff(a, initialBasisReal(5, 3, true, 99)))

	c := initialBasisComplex(4, 2, true, 99)
	assert.Less(t, cla.OrthError(c), 1e-10)
	assert.Greater(t, complexDiff(c, cla.Eye(4, 2)), 1e-3)
	assert.Equal(t, 0.0, complexDiff(cla.Eye(4, 2), initialBasisComplex(4, 2, false, 0)))
}

func TestRealignUndoesPermutation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 11
	e := newRealEngine(5, 3, cfg)
	prev := mat.DenseCopyOf(e.a)

	// Same subspace, columns permuted with one sign flip.
	perm := mat.NewDense(3, 3, []float64{
		0, 1, 0,
		0, 0, -1,
		1, 0, 0,
	})
	var c mat.Dense
	c.Mul(prev, perm)
	require.Greater(t, frobDiff(&c, prev), 1.0)

	e.realign(&c)
	assert.Less(t, frobDiff(e.a, prev), 1e-10)
	assert.Less(t, orthError(e.a), 1e-10)

	cfg.Corrected = false
	e = newRealEngine(5, 3, cfg)
	e.realign(&c)
	assert.Equal(t, 0.0, frobDiff(e.a, &c))
}

func TestRealignNeverIncreasesRotation(t *testing.T) {
	cfg := DefaultConfig()
	for seed := uint64(1); seed <= 20; seed++ {
		cfg.Seed = seed
		e := newRealEngine(6, 2, cfg)
		prev := mat.DenseCopyOf(e.a)

		// A nearby subspace, orthonormalized by QR with arbitrary orientation.
		drift := initialBasisReal(6, 2, true, seed+100)
		var z mat.Dense
		z.Scale(0.1, drift)
		z.Add(&z, prev)
		var qr mat.QR
		qr.Factorize(&z)
		var q mat.Dense
		qr.QTo(&q)
		c := mat.DenseCopyOf(q.Slice(0, 6, 0, 2))

		uncorrected := frobDiff(c, prev)
		e.realign(c)
		assert.LessOrEqual(t, frobDiff(e.a, prev), uncorrected+1e-12, "seed %d", seed)
	}
}

func TestComplexRealignUndoesPhases(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 5
	e := newComplexEngine(4, 2, cfg)
	prev := cla.Clone(e.a)

	c := cla.Clone(prev)
	for i := 0; i < 4; i++ {
		c.Data[i*2] *= 1i
		c.Data[i*2+1] *= -1
	}
	require.Greater(t, complexDiff(c, prev), 1.0)

	e.realign(c)
	assert.Less(t, complexDiff(e.a, prev), 1e-10)
}

func TestGradientStepKeepsUnitColumns(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeGradient
	cfg.Seed = 3
	cfg.Epsilon = 0.01
	e := newRealEngine(4, 2, cfg)
	e.accumulate([]float64{1, -1, 0.5, 2})
	for i := 0; i < 10; i++ {
		e.update()
	}
	assert.Less(t, orthError(e.a), 1e-3)
	for j := 0; j < 2; j++ {
		assert.InDelta(t, 1, mat.Norm(e.a.ColView(j), 2), 1e-3)
	}
}

func TestBasisViewsShareStorage(t *testing.T) {
	delays := []int{0, 2, 4}
	rres, err := Analyze(context.Background(), noise(80, 11), delays, 2, seeded(ModeQR))
	require.NoError(t, err)
	last := rres.Len() - 1
	a := RealBasis(rres, last)
	r, c := a.Dims()
	require.Equal(t, 3, r)
	require.Equal(t, 2, c)
	assert.Less(t, orthError(a), 1e-10)
	assert.InDelta(t, rres.Orthogonality(last), orthError(a), 1e-9)
	a.Set(0, 0, 42)
	assert.Equal(t, 42.0, rres.Bases[last][0])

	cres, err := Analyze(context.Background(), complexNoise(80, 12), delays, 2, seeded(ModeSVD))
	require.NoError(t, err)
	ca := ComplexBasis(cres, cres.Len()-1)
	require.Equal(t, 3, ca.Rows)
	require.Equal(t, 2, ca.Cols)
	assert.Less(t, cla.OrthError(ca), 1e-10)
}
