package cla

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
)

const (
	eps           = 0x1p-52
	maxJacobiSwps = 64
)

// SVD computes the thin singular value decomposition a = U·diag(s)·Vᴴ of an
// m×n matrix with m >= n using one-sided Jacobi rotations. U is m×n with
// orthonormal columns and V is n×n unitary. Singular values are returned in
// column order, not sorted.
//
// Columns whose singular value is negligible are completed to an orthonormal
// set, so U is well defined for rank-deficient input.
func SVD(a cblas128.General) (u cblas128.General, s []float64, v cblas128.General) {
	u, s, v = NewWork(a.Rows, a.Cols).svd(a)
	return u, s, v
}

// Polar returns U·Vᴴ from the thin SVD of a: the m×n matrix with orthonormal
// columns closest to a in the Frobenius norm.
func Polar(a cblas128.General) cblas128.General {
	p := New(a.Rows, a.Cols)
	NewWork(a.Rows, a.Cols).PolarTo(p, a)
	return p
}

// PolarTo is Polar writing into dst, which must be m×n and must not alias a.
func (w *Work) PolarTo(dst, a cblas128.General) {
	w.check(dst)
	u, _, v := w.svd(a)
	cblas128.Gemm(blas.NoTrans, blas.ConjTrans, 1, u, v, 0, dst)
}

// svd factorizes a into the workspace. The returned matrices and slice are
// owned by w and overwritten by the next call.
func (w *Work) svd(a cblas128.General) (u cblas128.General, s []float64, v cblas128.General) {
	w.check(a)
	m, n := w.m, w.n
	u, s, v = w.buf, w.s, w.v
	CopyInto(u, a)
	setEye(v)
	tol := math.Sqrt(float64(m)) * eps

	for sweep := 0; sweep < maxJacobiSwps; sweep++ {
		rotated := false
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				up, uq := Col(u, p), Col(u, q)
				alpha := sq(cblas128.Nrm2(up))
				beta := sq(cblas128.Nrm2(uq))
				gamma := cblas128.Dotc(up, uq)
				g := cmplx.Abs(gamma)
				if g == 0 || g <= tol*math.Sqrt(alpha*beta) {
					continue
				}
				rotated = true

				zeta := (beta - alpha) / (2 * g)
				t := 1 / (math.Abs(zeta) + math.Sqrt(1+zeta*zeta))
				if zeta < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(1+t*t)
				sn := c * t
				phase := cmplx.Conj(gamma) / complex(g, 0)
				rotate(u, p, q, c, sn, phase)
				rotate(v, p, q, c, sn, phase)
			}
		}
		if !rotated {
			break
		}
	}

	order := w.order
	for j := range s {
		s[j] = cblas128.Nrm2(Col(u, j))
		order[j] = j
	}
	sortDescending(order, s)

	var smax float64
	if n > 0 {
		smax = s[order[0]]
	}
	floor := smax * float64(m) * eps

	accepted := w.accepted[:0]
	deficient := w.deficient[:0]
	for _, j := range order {
		cj := Col(u, j)
		if s[j] == 0 || s[j] <= floor {
			deficient = append(deficient, j)
			continue
		}
		cblas128.Dscal(1/s[j], cj)
		// Re-orthogonalize: small singular values leave normalization error.
		for pass := 0; pass < 2; pass++ {
			orthogonalize(u, j, accepted)
		}
		nrm := cblas128.Nrm2(cj)
		if nrm < 0.5 {
			deficient = append(deficient, j)
			continue
		}
		cblas128.Dscal(1/nrm, cj)
		accepted = append(accepted, j)
	}

	for _, j := range deficient {
		s[j] = 0
		cj := Col(u, j)
		for r := 0; r < m; r++ {
			for i := 0; i < m; i++ {
				u.Data[i*u.Stride+j] = 0
			}
			u.Data[r*u.Stride+j] = 1
			for pass := 0; pass < 2; pass++ {
				orthogonalize(u, j, accepted)
			}
			if nrm := cblas128.Nrm2(cj); nrm > 0.5 {
				cblas128.Dscal(1/nrm, cj)
				break
			}
		}
		accepted = append(accepted, j)
	}
	w.accepted, w.deficient = accepted, deficient
	return u, s, v
}

// rotate applies the unitary plane rotation
//
//	x_p ← c·x_p − s·φ·x_q
//	x_q ← s·x_p + c·φ·x_q
//
// to columns p and q of a.
func rotate(a cblas128.General, p, q int, c, s float64, phase complex128) {
	cc, ss := complex(c, 0), complex(s, 0)
	for i := 0; i < a.Rows; i++ {
		row := a.Data[i*a.Stride:]
		xp, xq := row[p], row[q]
		row[p] = cc*xp - ss*phase*xq
		row[q] = ss*xp + cc*phase*xq
	}
}

// orthogonalize removes from column j of u its components along columns in
// against, which must be orthonormal.
func orthogonalize(u cblas128.General, j int, against []int) {
	cj := Col(u, j)
	for _, i := range against {
		ci := Col(u, i)
		h := cblas128.Dotc(ci, cj)
		cblas128.Axpy(-h, ci, cj)
	}
}

func sq(x float64) float64 { return x * x }

// sortDescending stably orders idx by decreasing key[idx[i]]. n is the rank,
// so an in-place insertion sort is enough and does not allocate.
func sortDescending(idx []int, key []float64) {
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && key[idx[j]] > key[idx[j-1]]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
}
