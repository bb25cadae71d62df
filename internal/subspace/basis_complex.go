package subspace

import (
	"math"

	"github.com/banshee-data/embedtrack/internal/cla"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
)

// complexEngine holds the covariance and basis state for a complex signal.
// All matrices are compact row-major.
type complexEngine struct {
	cfg  Config
	n, k int

	a cblas128.General // n×k basis
	b cblas128.General // n×n covariance

	z  cblas128.General // n×k damped step
	c  cblas128.General // n×k orthonormalized step
	y  cblas128.General // k×k Procrustes rotation
	nk cblas128.General
	kk cblas128.General

	wz *cla.Work // factorizes z
	wy *cla.Work // factorizes Cᴴ·A
}

func newComplexEngine(n, k int, cfg Config) *complexEngine {
	return &complexEngine{
		cfg: cfg,
		n:   n,
		k:   k,
		a:   initialBasisComplex(n, k, cfg.Randomize, cfg.Seed),
		b:   cla.New(n, n),
		z:   cla.New(n, k),
		c:   cla.New(n, k),
		y:   cla.New(k, k),
		nk:  cla.New(n, k),
		kk:  cla.New(k, k),
		wz:  cla.NewWork(n, k),
		wy:  cla.NewWork(k, k),
	}
}

func (e *complexEngine) accumulate(y []complex128) {
	AccumulateComplex(e.b, y, e.cfg.Alpha, e.cfg.Normalize, e.cfg.Gamma)
}

func (e *complexEngine) update() {
	// Z = (1-δ)·A + δ·B·A
	cla.CopyInto(e.z, e.a)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, complex(e.cfg.Delta, 0), e.b, e.a, complex(1-e.cfg.Delta, 0), e.z)

	switch e.cfg.Mode {
	case ModeGradient:
		e.gradientStep()
	case ModeQR:
		e.wz.QRTo(e.c, e.z)
		e.realign(e.c)
	case ModeSVD:
		e.wz.PolarTo(e.c, e.z)
		e.realign(e.c)
	}
}

func (e *complexEngine) gradientStep() {
	n, k := e.n, e.k
	flatA := cblas128.Vector{N: n * k, Inc: 1, Data: e.a.Data}
	flatNK := cblas128.Vector{N: n * k, Inc: 1, Data: e.nk.Data}

	// A += ε·√(Nk)·(Z − A·(Aᴴ·Z))
	cblas128.Gemm(blas.ConjTrans, blas.NoTrans, 1, e.a, e.z, 0, e.kk)
	cla.CopyInto(e.nk, e.z)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, -1, e.a, e.kk, 1, e.nk)
	cblas128.Axpy(complex(e.cfg.Epsilon*math.Sqrt(float64(n*k)), 0), flatNK, flatA)

	for j := 0; j < k; j++ {
		col := cla.Col(e.a, j)
		if norm := cblas128.Nrm2(col); norm > 0 {
			cblas128.Dscal(1/norm, col)
		}
	}

	// E = A·(I − AᴴA), added with the self-limiting step (1/k)/(1/k + max|E|).
	cblas128.Gemm(blas.ConjTrans, blas.NoTrans, 1, e.a, e.a, 0, e.kk)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			e.kk.Data[i*k+j] = -e.kk.Data[i*k+j]
		}
		e.kk.Data[i*k+i]++
	}
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, e.a, e.kk, 0, e.nk)
	inv := 1 / float64(k)
	cblas128.Axpy(complex(inv/(inv+cla.MaxAbs(e.nk)), 0), flatNK, flatA)
}

// realign sets A = C·Y, Y being the unitary closest to Cᴴ·A when correction
// is enabled and the identity otherwise.
func (e *complexEngine) realign(c cblas128.General) {
	if !e.cfg.Corrected {
		cla.CopyInto(e.a, c)
		return
	}
	cblas128.Gemm(blas.ConjTrans, blas.NoTrans, 1, c, e.a, 0, e.kk)
	e.wy.PolarTo(e.y, e.kk)
	cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1, c, e.y, 0, e.a)
}

func (e *complexEngine) project(y, traj, basis []complex128) (float64, complex128) {
	yv := cblas128.Vector{N: e.n, Inc: 1, Data: y}
	tv := cblas128.Vector{N: e.k, Inc: 1, Data: traj}
	cblas128.Gemv(blas.ConjTrans, 1, e.a, yv, 0, tv)

	if basis != nil {
		copy(basis, e.a.Data)
	}

	energy := real(cblas128.Dotc(yv, yv))
	dist := energy - real(cblas128.Dotc(tv, tv))
	if e.cfg.Normalize {
		dist /= e.cfg.Gamma + energy
	}
	sep := y[0] - cblas128.Dotu(cla.Row(e.a, 0), tv)
	return dist, sep
}
