package subspace

import (
	"math"

	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
)

// Result holds the four parallel output streams of an Analyze run. Entry t
// corresponds to input sample t + Offset.
type Result[T Scalar] struct {
	N, K   int // embedding dimension and subspace rank
	Offset int // input index of the first output: the largest delay, or 0 when padded

	Trajectory [][]T     // T×K projections Aᴴ·y
	Bases      [][]T     // T snapshots of A, each N×K row-major; nil if discarded
	Distances  []float64 // residual energy, normalized when configured
	Sep        []T       // first coordinate of y − A·Aᴴ·y

	// Interrupted reports that the run was cancelled; the streams hold the
	// samples completed before cancellation.
	Interrupted bool
}

func newResult[T Scalar](n, k, steps, offset int, keepBases bool) *Result[T] {
	r := &Result[T]{
		N:          n,
		K:          k,
		Offset:     offset,
		Trajectory: make([][]T, steps),
		Distances:  make([]float64, steps),
		Sep:        make([]T, steps),
	}
	traj := make([]T, steps*k)
	for t := range r.Trajectory {
		r.Trajectory[t] = traj[t*k : (t+1)*k : (t+1)*k]
	}
	if keepBases {
		nk := n * k
		bases := make([]T, steps*nk)
		r.Bases = make([][]T, steps)
		for t := range r.Bases {
			r.Bases[t] = bases[t*nk : (t+1)*nk : (t+1)*nk]
		}
	}
	return r
}

// Len returns the number of recorded samples.
func (r *Result[T]) Len() int { return len(r.Distances) }

func (r *Result[T]) truncate(t int) {
	r.Trajectory = r.Trajectory[:t]
	r.Distances = r.Distances[:t]
	r.Sep = r.Sep[:t]
	if r.Bases != nil {
		r.Bases = r.Bases[:t]
	}
	r.Interrupted = true
}

// Orthogonality returns ‖AᴴA − I‖_F for the basis recorded at step t, or NaN
// when bases were discarded.
func (r *Result[T]) Orthogonality(t int) float64 {
	if r.Bases == nil {
		return math.NaN()
	}
	b := r.Bases[t]
	var sum float64
	for i := 0; i < r.K; i++ {
		for j := 0; j < r.K; j++ {
			var g complex128
			for row := 0; row < r.N; row++ {
				x, y := asComplex(b[row*r.K+i]), asComplex(b[row*r.K+j])
				g += complex(real(x), -imag(x)) * y
			}
			if i == j {
				g--
			}
			sum += real(g)*real(g) + imag(g)*imag(g)
		}
	}
	return math.Sqrt(sum)
}

// Radius returns ‖trajectory_t‖.
func (r *Result[T]) Radius(t int) float64 {
	var sum float64
	for _, v := range r.Trajectory[t] {
		z := asComplex(v)
		sum += real(z)*real(z) + imag(z)*imag(z)
	}
	return math.Sqrt(sum)
}

// RealBasis returns the basis recorded at step t as an N×K matrix sharing
// the result's storage.
func RealBasis(r *Result[float64], t int) *mat.Dense {
	return mat.NewDense(r.N, r.K, r.Bases[t])
}

// ComplexBasis returns the basis recorded at step t as an N×K matrix sharing
// the result's storage.
func ComplexBasis(r *Result[complex128], t int) cblas128.General {
	return cblas128.General{Rows: r.N, Cols: r.K, Stride: r.K, Data: r.Bases[t]}
}

func asComplex[T Scalar](v T) complex128 {
	switch x := any(v).(type) {
	case float64:
		return complex(x, 0)
	case complex128:
		return x
	}
	return 0
}
