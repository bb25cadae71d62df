package cla

import "gonum.org/v1/gonum/blas/cblas128"

// Work is scratch space for repeated factorizations of m×n matrices. QRTo
// and PolarTo reuse it instead of allocating, which matters in per-sample
// loops. A Work must not be shared between goroutines.
type Work struct {
	m, n int

	buf  cblas128.General // m×n: R for QR, U for SVD
	v    cblas128.General // n×n right singular vectors
	refl []complex128     // Householder vectors; reflector j lives at [j*m, j*m+m-j)
	has  []bool           // has[j] is false for skipped (zero) reflectors
	s    []float64

	order, accepted, deficient []int
}

// NewWork returns scratch space for m×n inputs with m >= n.
func NewWork(m, n int) *Work {
	if m < n {
		panic(badShape)
	}
	return &Work{
		m:         m,
		n:         n,
		buf:       New(m, n),
		v:         New(n, n),
		refl:      make([]complex128, m*n),
		has:       make([]bool, n),
		s:         make([]float64, n),
		order:     make([]int, n),
		accepted:  make([]int, 0, n),
		deficient: make([]int, 0, n),
	}
}

func (w *Work) check(a cblas128.General) {
	if a.Rows != w.m || a.Cols != w.n {
		panic(badShape)
	}
}

// setEye overwrites a with the identity pattern.
func setEye(a cblas128.General) {
	for i := 0; i < a.Rows; i++ {
		row := a.Data[i*a.Stride : i*a.Stride+a.Cols]
		for j := range row {
			row[j] = 0
		}
		if i < a.Cols {
			row[i] = 1
		}
	}
}
