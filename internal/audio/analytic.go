package audio

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Analytic returns the analytic signal x + i·H(x), where H is the Hilbert
// transform, computed by zeroing the negative-frequency half of the DFT.
func Analytic(x []float64) []complex128 {
	n := len(x)
	if n == 0 {
		return nil
	}
	fft := fourier.NewCmplxFFT(n)

	seq := make([]complex128, n)
	for i, v := range x {
		seq[i] = complex(v, 0)
	}
	coef := fft.Coefficients(nil, seq)

	// Keep DC (and Nyquist for even n), double positive frequencies.
	half := (n + 1) / 2
	for i := 1; i < half; i++ {
		coef[i] *= 2
	}
	for i := n/2 + 1; i < n; i++ {
		coef[i] = 0
	}

	// Inverse transform as conj(DFT(conj(X)))/n.
	for i := range coef {
		coef[i] = cmplx.Conj(coef[i])
	}
	out := fft.Coefficients(seq, coef)
	scale := complex(1/float64(n), 0)
	for i := range out {
		out[i] = cmplx.Conj(out[i]) * scale
	}
	return out
}
