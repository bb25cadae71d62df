// Package synth generates deterministic test signals: pure and band-limited
// periodic tones built from oscillator sums, stretched-partial timbres with
// additive noise, and complex analytic tones.
package synth

import (
	"math"
	"math/cmplx"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Tone describes a periodic source.
type Tone struct {
	SampleRate float64
	Frequency  float64
	Amplitude  float64
	Phase      float64 // initial phase in cycles, wrapped to [0, 1)
}

// NewTone returns a unit-amplitude tone at freq Hz.
func NewTone(sampleRate, freq float64) Tone {
	return Tone{SampleRate: sampleRate, Frequency: freq, Amplitude: 1}
}

// Period returns the number of samples per cycle.
func (t Tone) Period() float64 { return t.SampleRate / t.Frequency }

// maxHarmonic returns the highest harmonic below Nyquist.
func (t Tone) maxHarmonic() int {
	if t.Frequency <= 0 {
		return 0
	}
	return int(math.Floor(t.SampleRate / (2 * t.Frequency)))
}

func (t Tone) angle(i int, ratio float64) float64 {
	phase := t.Phase - math.Floor(t.Phase)
	return 2 * math.Pi * (ratio*t.Frequency*float64(i)/t.SampleRate + ratio*phase)
}

// Sine returns n samples of a pure sinusoid.
func (t Tone) Sine(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = t.Amplitude * math.Sin(t.angle(i, 1))
	}
	return out
}

// Partials returns n samples of the sum of harmonics h = 1..len(amps) with
// amplitudes amps[h-1]. Harmonics at or above Nyquist are dropped.
func (t Tone) Partials(n int, amps []float64) []float64 {
	out := make([]float64, n)
	limit := t.maxHarmonic()
	for h, a := range amps {
		if h+1 > limit || a == 0 {
			continue
		}
		ratio := float64(h + 1)
		for i := range out {
			out[i] += t.Amplitude * a * math.Sin(t.angle(i, ratio))
		}
	}
	return out
}

// Saw returns a band-limited sawtooth built from every harmonic below
// Nyquist, capped at maxPartials when positive.
func (t Tone) Saw(n, maxPartials int) []float64 {
	amps := make([]float64, t.harmonicCount(maxPartials))
	for h := range amps {
		sign := 1.0
		if h%2 == 1 {
			sign = -1
		}
		amps[h] = sign * 2 / (math.Pi * float64(h+1))
	}
	return t.Partials(n, amps)
}

// Square returns a band-limited square wave (odd harmonics only).
func (t Tone) Square(n, maxPartials int) []float64 {
	amps := make([]float64, t.harmonicCount(maxPartials))
	for h := 0; h < len(amps); h += 2 {
		amps[h] = 4 / (math.Pi * float64(h+1))
	}
	return t.Partials(n, amps)
}

// Triangle returns a band-limited triangle wave (odd harmonics, 1/h² roll-off).
func (t Tone) Triangle(n, maxPartials int) []float64 {
	amps := make([]float64, t.harmonicCount(maxPartials))
	for h := 0; h < len(amps); h += 2 {
		sign := 1.0
		if (h/2)%2 == 1 {
			sign = -1
		}
		k := float64(h + 1)
		amps[h] = sign * 8 / (math.Pi * math.Pi * k * k)
	}
	return t.Partials(n, amps)
}

func (t Tone) harmonicCount(maxPartials int) int {
	count := t.maxHarmonic()
	if maxPartials > 0 && maxPartials < count {
		count = maxPartials
	}
	return count
}

// Analytic returns n samples of the complex tone A·exp(iωt).
func (t Tone) Analytic(n int) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(t.Amplitude, 0) * cmplx.Exp(complex(0, t.angle(i, 1)))
	}
	return out
}

// Timbre describes an inharmonic, noisy instrument-like tone.
type Timbre struct {
	Tone
	Partials   int     // number of partials
	Stretch    float64 // stiffness B in f_h = h·f0·√(1 + B·h²)
	Rolloff    float64 // partial amplitude ∝ h^-Rolloff
	Decay      float64 // per-partial exponential decay rate in 1/s, scaled by h
	NoiseLevel float64 // standard deviation of additive white noise
	Seed       uint64
}

// Render returns n samples of the timbre.
func (tb Timbre) Render(n int) []float64 {
	out := make([]float64, n)
	nyquist := tb.SampleRate / 2
	for h := 1; h <= tb.Partials; h++ {
		hf := float64(h)
		freq := hf * tb.Frequency * math.Sqrt(1+tb.Stretch*hf*hf)
		if freq >= nyquist {
			break
		}
		amp := tb.Amplitude * math.Pow(hf, -tb.Rolloff)
		w := 2 * math.Pi * freq / tb.SampleRate
		for i := range out {
			env := math.Exp(-tb.Decay * hf * float64(i) / tb.SampleRate)
			out[i] += amp * env * math.Sin(w*float64(i))
		}
	}
	if tb.NoiseLevel > 0 {
		AddNoise(out, tb.NoiseLevel, tb.Seed)
	}
	return out
}

// AddNoise adds zero-mean Gaussian noise with standard deviation sigma to x
// in place. The same seed always produces the same noise.
func AddNoise(x []float64, sigma float64, seed uint64) {
	noise := distuv.Normal{Mu: 0, Sigma: sigma, Src: rand.NewPCG(seed, ^seed)}
	for i := range x {
		x[i] += noise.Rand()
	}
}

// Normalize scales x in place so its peak magnitude is 1. Silent input is
// left unchanged.
func Normalize(x []float64) {
	if len(x) == 0 {
		return
	}
	peak := math.Max(floats.Max(x), -floats.Min(x))
	if peak == 0 {
		return
	}
	floats.Scale(1/peak, x)
}
