package subspace

import (
	"math"

	"github.com/banshee-data/embedtrack/internal/monitoring"
	"gonum.org/v1/gonum/mat"
)

// realEngine holds the covariance and basis state for a real signal.
type realEngine struct {
	cfg  Config
	n, k int

	a *mat.Dense    // n×k basis
	b *mat.SymDense // n×n covariance

	// scratch
	z   *mat.Dense // n×k damped step
	c   *mat.Dense // n×k polar factor of z
	y   *mat.Dense // k×k Procrustes rotation
	nk  *mat.Dense
	kk  *mat.Dense
	q   *mat.Dense // n×n full Q of the QR factorization
	qr  mat.QR
	svd mat.SVD

	// Singular vectors, kept per input shape so UTo and VTo reuse them.
	uz, vz mat.Dense // n×k, k×k
	uy, vy mat.Dense // k×k, k×k
}

func newRealEngine(n, k int, cfg Config) *realEngine {
	return &realEngine{
		cfg: cfg,
		n:   n,
		k:   k,
		a:   initialBasisReal(n, k, cfg.Randomize, cfg.Seed),
		b:   mat.NewSymDense(n, nil),
		z:   mat.NewDense(n, k, nil),
		c:   mat.NewDense(n, k, nil),
		y:   mat.NewDense(k, k, nil),
		nk:  mat.NewDense(n, k, nil),
		kk:  mat.NewDense(k, k, nil),
		q:   mat.NewDense(n, n, nil),
	}
}

func (e *realEngine) accumulate(y []float64) {
	Accumulate(e.b, mat.NewVecDense(e.n, y), e.cfg.Alpha, e.cfg.Normalize, e.cfg.Gamma)
}

// damped sets z = (1-δ)·A + δ·B·A.
func (e *realEngine) damped() {
	e.z.Mul(e.b, e.a)
	e.z.Scale(e.cfg.Delta, e.z)
	e.nk.Scale(1-e.cfg.Delta, e.a)
	e.z.Add(e.z, e.nk)
}

func (e *realEngine) update() {
	e.damped()
	switch e.cfg.Mode {
	case ModeGradient:
		e.gradientStep()
	case ModeQR:
		e.qrStep()
	case ModeSVD:
		e.svdStep()
	}
}

func (e *realEngine) gradientStep() {
	n, k := e.n, e.k

	// A += ε·√(Nk)·(Z − A·(Aᵀ·Z))
	e.kk.Mul(e.a.T(), e.z)
	e.nk.Mul(e.a, e.kk)
	e.nk.Sub(e.z, e.nk)
	e.nk.Scale(e.cfg.Epsilon*math.Sqrt(float64(n*k)), e.nk)
	e.a.Add(e.a, e.nk)

	for j := 0; j < k; j++ {
		col := e.a.ColView(j)
		if norm := mat.Norm(col, 2); norm > 0 {
			for i := 0; i < n; i++ {
				e.a.Set(i, j, e.a.At(i, j)/norm)
			}
		}
	}

	// E = A·(I − AᵀA), added with the self-limiting step (1/k)/(1/k + max|E|).
	e.kk.Mul(e.a.T(), e.a)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			v := -e.kk.At(i, j)
			if i == j {
				v++
			}
			e.kk.Set(i, j, v)
		}
	}
	e.nk.Mul(e.a, e.kk)
	maxAbs := 0.0
	raw := e.nk.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		for _, v := range raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols] {
			maxAbs = math.Max(maxAbs, math.Abs(v))
		}
	}
	inv := 1 / float64(k)
	e.nk.Scale(inv/(inv+maxAbs), e.nk)
	e.a.Add(e.a, e.nk)
}

func (e *realEngine) qrStep() {
	e.qr.Factorize(e.z)
	e.qr.QTo(e.q)
	c := e.q.Slice(0, e.n, 0, e.k)
	e.realign(c)
}

func (e *realEngine) svdStep() {
	if !e.polar(e.c, e.z, &e.uz, &e.vz) {
		monitoring.Logf("subspace: SVD of damped step did not converge; keeping previous basis")
		return
	}
	e.realign(e.c)
}

// polar sets dst = U·Vᵀ from the thin SVD of m, the nearest matrix with
// orthonormal columns. u and v receive the singular vectors and must be
// empty or already sized for m.
func (e *realEngine) polar(dst *mat.Dense, m mat.Matrix, u, v *mat.Dense) bool {
	if !e.svd.Factorize(m, mat.SVDThin) {
		return false
	}
	e.svd.UTo(u)
	e.svd.VTo(v)
	dst.Mul(u, v.T())
	return true
}

// realign sets A = C·Y where Y is the Procrustes rotation of C onto the
// previous A, or the identity when correction is disabled.
func (e *realEngine) realign(c mat.Matrix) {
	if !e.cfg.Corrected {
		e.a.Copy(c)
		return
	}
	if !e.procrustes(c) {
		e.a.Copy(c)
		return
	}
	e.nk.Mul(c, e.y)
	e.a.Copy(e.nk)
}

// procrustes sets y to the k×k orthogonal matrix closest to Cᵀ·A.
func (e *realEngine) procrustes(c mat.Matrix) bool {
	e.kk.Mul(c.T(), e.a)
	return e.polar(e.y, e.kk, &e.uy, &e.vy)
}

func (e *realEngine) project(y, traj, basis []float64) (float64, float64) {
	yv := mat.NewVecDense(e.n, y)
	tv := mat.NewVecDense(e.k, traj)
	tv.MulVec(e.a.T(), yv)

	if basis != nil {
		raw := e.a.RawMatrix()
		for i := 0; i < e.n; i++ {
			copy(basis[i*e.k:(i+1)*e.k], raw.Data[i*raw.Stride:i*raw.Stride+e.k])
		}
	}

	energy := mat.Dot(yv, yv)
	dist := energy - mat.Dot(tv, tv)
	if e.cfg.Normalize {
		dist /= e.cfg.Gamma + energy
	}
	sep := y[0] - mat.Dot(e.a.RowView(0), tv)
	return dist, sep
}
