package cla

import (
	"math/cmplx"

	"gonum.org/v1/gonum/blas/cblas128"
)

// QR returns the m×n orthonormal factor Q of the economy factorization
// a = Q·R for an m×n matrix with m >= n. The triangular factor is discarded.
//
// Q is accumulated from Householder reflectors, so its columns are
// orthonormal even when a is rank deficient; a zero column leaves the
// corresponding reflector as the identity.
func QR(a cblas128.General) cblas128.General {
	q := New(a.Rows, a.Cols)
	NewWork(a.Rows, a.Cols).QRTo(q, a)
	return q
}

// QRTo is QR writing Q into dst, which must be m×n and must not alias a.
func (w *Work) QRTo(dst, a cblas128.General) {
	w.check(a)
	w.check(dst)
	m, n := w.m, w.n
	r := w.buf
	CopyInto(r, a)
	for j := 0; j < n; j++ {
		v := w.refl[j*m : j*m+m-j]
		for i := j; i < m; i++ {
			v[i-j] = r.Data[i*r.Stride+j]
		}
		vv := cblas128.Vector{N: len(v), Inc: 1, Data: v}
		norm := cblas128.Nrm2(vv)
		w.has[j] = norm != 0
		if norm == 0 {
			continue
		}
		phase := complex(1, 0)
		if abs := cmplx.Abs(v[0]); abs != 0 {
			phase = v[0] / complex(abs, 0)
		}
		v[0] += phase * complex(norm, 0)
		cblas128.Dscal(1/cblas128.Nrm2(vv), vv)
		reflect(r, j, j, v)
	}

	setEye(dst)
	for j := n - 1; j >= 0; j-- {
		if w.has[j] {
			reflect(dst, j, j, w.refl[j*m:j*m+m-j])
		}
	}
}

// reflect applies H = I - 2·v·vᴴ to the block of a starting at (row0, col0).
func reflect(a cblas128.General, row0, col0 int, v []complex128) {
	for c := col0; c < a.Cols; c++ {
		var s complex128
		for i, vi := range v {
			s += cmplx.Conj(vi) * a.Data[(row0+i)*a.Stride+c]
		}
		s *= 2
		for i, vi := range v {
			a.Data[(row0+i)*a.Stride+c] -= vi * s
		}
	}
}
