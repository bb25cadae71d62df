package subspace

import "fmt"

// Scalar is the numeric domain of a signal.
type Scalar interface {
	float64 | complex128
}

// Embedder extracts delay vectors y[j] = X[i - delays[j]] from a signal X,
// optionally left-padded with zeros by the largest delay.
type Embedder[T Scalar] struct {
	x        []T
	delays   []int
	lookback int
}

// NewEmbedder builds an embedder over signal. The delay set must be valid
// (see Config.Validate); the last delay is the maximum lookback. When pad is
// true the signal is copied behind lookback zeros, otherwise it is used as is.
func NewEmbedder[T Scalar](signal []T, delays []int, pad bool) *Embedder[T] {
	lookback := delays[len(delays)-1]
	x := signal
	if pad {
		x = make([]T, lookback+len(signal))
		copy(x[lookback:], signal)
	}
	ds := make([]int, len(delays))
	copy(ds, delays)
	return &Embedder[T]{x: x, delays: ds, lookback: lookback}
}

// Dim returns the embedding dimension N.
func (e *Embedder[T]) Dim() int { return len(e.delays) }

// Lookback returns the largest delay, the first index that can be embedded.
func (e *Embedder[T]) Lookback() int { return e.lookback }

// Steps returns the number of embeddable indices, len(X) - lookback. It is
// negative when an unpadded signal is shorter than the lookback.
func (e *Embedder[T]) Steps() int { return len(e.x) - e.lookback }

// At fills y with the embedding at absolute index i of the (padded) signal.
func (e *Embedder[T]) At(i int, y []T) error {
	if i < e.lookback || i >= len(e.x) {
		return fmt.Errorf("embedding index %d outside [%d, %d)", i, e.lookback, len(e.x))
	}
	if len(y) != len(e.delays) {
		return fmt.Errorf("embedding buffer has length %d, want %d", len(y), len(e.delays))
	}
	for j, d := range e.delays {
		y[j] = e.x[i-d]
	}
	return nil
}
