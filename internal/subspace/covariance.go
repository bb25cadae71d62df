package subspace

import (
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// Accumulate applies one decayed second-moment update to b in place:
//
//	B' = α·B + (1-α)·y·yᵀ
//
// When normalize is set the outer product is divided by γ + yᵀy, which keeps
// loud passages from dominating and stays finite during silence.
func Accumulate(b *mat.SymDense, y mat.Vector, alpha float64, normalize bool, gamma float64) {
	w := 1 - alpha
	if normalize {
		w /= gamma + mat.Dot(y, y)
	}
	b.ScaleSym(alpha, b)
	b.SymRankOne(b, w, y)
}

// AccumulateComplex is Accumulate for the complex domain, using the
// conjugate outer product y·yᴴ. b must be a dense n×n matrix with n = len(y).
func AccumulateComplex(b cblas128.General, y []complex128, alpha float64, normalize bool, gamma float64) {
	yv := cblas128.Vector{N: len(y), Inc: 1, Data: y}
	w := 1 - alpha
	if normalize {
		w /= gamma + real(cblas128.Dotc(yv, yv))
	}
	for r := 0; r < b.Rows; r++ {
		row := b.Data[r*b.Stride : r*b.Stride+b.Cols]
		cblas128.Dscal(alpha, cblas128.Vector{N: len(row), Inc: 1, Data: row})
	}
	cblas128.Gerc(complex(w, 0), yv, yv, b)
}
