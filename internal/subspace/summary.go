package subspace

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary condenses a Result into the figures persisted per run.
type Summary struct {
	Samples     int  `json:"samples"`
	Warmup      int  `json:"warmup"` // leading samples excluded from the statistics
	Interrupted bool `json:"interrupted"`

	MeanDistance float64 `json:"mean_distance"`
	MinDistance  float64 `json:"min_distance"`
	MaxDistance  float64 `json:"max_distance"`
	MeanRadius   float64 `json:"mean_radius"`

	// MaxOrthogonality is the largest ‖AᴴA − I‖_F over the scored samples.
	// It is only computed when bases were recorded.
	BasesRecorded    bool    `json:"bases_recorded"`
	MaxOrthogonality float64 `json:"max_orthogonality"`
}

// Summarize computes run statistics, skipping the first warmupFraction of
// samples (clamped to [0, 1], NaN meaning 0) to exclude the start-up transient.
func Summarize[T Scalar](r *Result[T], warmupFraction float64) Summary {
	if !(warmupFraction > 0) {
		warmupFraction = 0
	}
	warmupFraction = math.Min(1, warmupFraction)
	total := r.Len()
	warm := int(math.Floor(warmupFraction * float64(total)))
	s := Summary{Samples: total, Warmup: warm, Interrupted: r.Interrupted}

	scored := r.Distances[warm:]
	if len(scored) == 0 {
		return s
	}
	s.MeanDistance = stat.Mean(scored, nil)
	s.MinDistance = floats.Min(scored)
	s.MaxDistance = floats.Max(scored)

	radii := make([]float64, len(scored))
	for i := range radii {
		radii[i] = r.Radius(warm + i)
	}
	s.MeanRadius = stat.Mean(radii, nil)

	if r.Bases == nil {
		return s
	}
	s.BasesRecorded = true
	for t := warm; t < total; t++ {
		s.MaxOrthogonality = math.Max(s.MaxOrthogonality, r.Orthogonality(t))
	}
	return s
}
