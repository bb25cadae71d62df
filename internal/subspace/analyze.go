package subspace

import (
	"context"
	"fmt"

	"github.com/banshee-data/embedtrack/internal/monitoring"
)

// engine is the per-domain state machine driven by Analyze: it owns the
// covariance B and basis A.
type engine[T Scalar] interface {
	// accumulate folds the embedding y into B.
	accumulate(y []T)
	// update advances A by one substep of the configured rule.
	update()
	// project writes Aᴴ·y into traj and a copy of A into basis (if non-nil)
	// and returns the distance and separation for y.
	project(y, traj, basis []T) (float64, T)
}

func newEngine[T Scalar](n, k int, cfg Config) engine[T] {
	var zero T
	switch any(zero).(type) {
	case float64:
		return any(newRealEngine(n, k, cfg)).(engine[T])
	case complex128:
		return any(newComplexEngine(n, k, cfg)).(engine[T])
	}
	panic("subspace: unsupported scalar type")
}

// Analyze tracks a rank-k subspace of the delay embedding of signal and
// returns one trajectory, basis, distance and separation entry per
// embeddable sample: len(signal) entries when cfg.Pad is set, otherwise
// len(signal) - delays[len(delays)-1].
//
// Configuration errors are returned before any state is created. The
// context is checked once per sample; on cancellation Analyze returns the
// completed prefix with Result.Interrupted set and a nil error.
func Analyze[T Scalar](ctx context.Context, signal []T, delays []int, k int, cfg Config) (*Result[T], error) {
	if err := cfg.Validate(delays, k); err != nil {
		return nil, err
	}
	emb := NewEmbedder(signal, delays, cfg.Pad)
	steps := emb.Steps()
	if steps < 0 {
		return nil, fmt.Errorf("%w: %d samples, maximum delay %d", ErrShortSignal, len(signal), emb.Lookback())
	}

	n := emb.Dim()
	offset := emb.Lookback()
	if cfg.Pad {
		offset = 0
	}
	res := newResult[T](n, k, steps, offset, !cfg.DiscardBases)
	eng := newEngine[T](n, k, cfg)

	y := make([]T, n)
	done := ctx.Done()
	for t := 0; t < steps; t++ {
		select {
		case <-done:
			monitoring.Logf("subspace: cancelled after %d of %d samples", t, steps)
			res.truncate(t)
			return res, nil
		default:
		}

		if err := emb.At(t+emb.Lookback(), y); err != nil {
			return nil, err
		}
		eng.accumulate(y)
		for j := 0; j < cfg.Oversample; j++ {
			eng.update()
		}

		var basis []T
		if res.Bases != nil {
			basis = res.Bases[t]
		}
		res.Distances[t], res.Sep[t] = eng.project(y, res.Trajectory[t], basis)

		if cfg.Progress != nil {
			cfg.Progress(t+1, steps)
		}
	}
	return res, nil
}
