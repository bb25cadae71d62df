package cla

import (
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// Exp returns the matrix exponential of the square complex matrix a.
//
// A complex matrix X + iY is represented by the real block matrix
// [[X, -Y], [Y, X]]; the map is an algebra homomorphism, so the exponential
// of the block matrix is the block form of exp(a).
func Exp(a cblas128.General) cblas128.General {
	n := a.Rows
	if a.Cols != n {
		panic(badShape)
	}
	r := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			z := a.Data[i*a.Stride+j]
			r.Set(i, j, real(z))
			r.Set(i, j+n, -imag(z))
			r.Set(i+n, j, imag(z))
			r.Set(i+n, j+n, real(z))
		}
	}
	var e mat.Dense
	e.Exp(r)

	out := New(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Data[i*out.Stride+j] = complex(e.At(i, j), e.At(i+n, j))
		}
	}
	return out
}
