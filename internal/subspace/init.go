package subspace

import (
	"math/cmplx"
	"math/rand/v2"

	"github.com/banshee-data/embedtrack/internal/cla"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// uniformSource returns a U[0,1) sampler. A zero seed draws a fresh one.
func uniformSource(seed uint64) distuv.Uniform {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return distuv.Uniform{Min: 0, Max: 1, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// initialBasisReal returns the first k standard basis vectors of R^n,
// rotated by exp(R - Rᵀ) for a random R when randomize is set.
func initialBasisReal(n, k int, randomize bool, seed uint64) *mat.Dense {
	a := mat.NewDense(n, k, nil)
	for i := 0; i < k; i++ {
		a.Set(i, i, 1)
	}
	if !randomize {
		return a
	}

	u := uniformSource(seed)
	r := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r.Set(i, j, u.Rand())
		}
	}
	var g mat.Dense
	g.Sub(r, r.T())

	var rot mat.Dense
	rot.Exp(&g)
	a.Copy(rot.Slice(0, n, 0, k))
	return a
}

// initialBasisComplex is initialBasisReal for C^n, with a skew-Hermitian
// generator R - Rᴴ whose real and imaginary parts are both random.
func initialBasisComplex(n, k int, randomize bool, seed uint64) cblas128.General {
	if !randomize {
		return cla.Eye(n, k)
	}

	u := uniformSource(seed)
	r := cla.New(n, n)
	for i := range r.Data {
		re := u.Rand()
		r.Data[i] = complex(re, u.Rand())
	}
	g := cla.New(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g.Data[i*n+j] = r.Data[i*n+j] - cmplx.Conj(r.Data[j*n+i])
		}
	}
	rot := cla.Exp(g)

	a := cla.New(n, k)
	for i := 0; i < n; i++ {
		copy(a.Data[i*k:(i+1)*k], rot.Data[i*n:i*n+k])
	}
	return a
}
