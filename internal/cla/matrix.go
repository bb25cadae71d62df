package cla

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
)

const badShape = "cla: bad shape"

// New returns a zeroed r×c matrix.
func New(r, c int) cblas128.General {
	return cblas128.General{Rows: r, Cols: c, Stride: c, Data: make([]complex128, r*c)}
}

// Eye returns the r×c matrix with ones on the main diagonal.
func Eye(r, c int) cblas128.General {
	a := New(r, c)
	for i := 0; i < r && i < c; i++ {
		a.Data[i*a.Stride+i] = 1
	}
	return a
}

// Clone returns a compact copy of a.
func Clone(a cblas128.General) cblas128.General {
	b := New(a.Rows, a.Cols)
	CopyInto(b, a)
	return b
}

// CopyInto copies src into dst, which must have the same dimensions.
func CopyInto(dst, src cblas128.General) {
	if dst.Rows != src.Rows || dst.Cols != src.Cols {
		panic(badShape)
	}
	for i := 0; i < src.Rows; i++ {
		copy(dst.Data[i*dst.Stride:i*dst.Stride+dst.Cols], src.Data[i*src.Stride:i*src.Stride+src.Cols])
	}
}

// Col returns column j of a as a strided vector view.
func Col(a cblas128.General, j int) cblas128.Vector {
	return cblas128.Vector{N: a.Rows, Inc: a.Stride, Data: a.Data[j:]}
}

// Row returns row i of a as a contiguous vector view.
func Row(a cblas128.General, i int) cblas128.Vector {
	return cblas128.Vector{N: a.Cols, Inc: 1, Data: a.Data[i*a.Stride : i*a.Stride+a.Cols]}
}

// OrthError returns ‖aᴴa - I‖_F, zero when the columns of a are orthonormal.
func OrthError(a cblas128.General) float64 {
	g := New(a.Cols, a.Cols)
	cblas128.Gemm(blas.ConjTrans, blas.NoTrans, 1, a, a, 0, g)
	var sum float64
	for i := 0; i < g.Rows; i++ {
		for j := 0; j < g.Cols; j++ {
			z := g.Data[i*g.Stride+j]
			if i == j {
				z -= 1
			}
			re, im := real(z), imag(z)
			sum += re*re + im*im
		}
	}
	return math.Sqrt(sum)
}

// MaxAbs returns the largest element modulus of a.
func MaxAbs(a cblas128.General) float64 {
	var m float64
	for i := 0; i < a.Rows; i++ {
		for _, z := range a.Data[i*a.Stride : i*a.Stride+a.Cols] {
			if v := cmplx.Abs(z); v > m {
				m = v
			}
		}
	}
	return m
}
