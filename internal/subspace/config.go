package subspace

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is wrapped by every configuration error returned by
// Validate and Analyze. Configuration errors are reported before any state
// is created.
var ErrInvalidConfig = errors.New("invalid subspace configuration")

// ErrShortSignal is returned when an unpadded signal is shorter than the
// largest delay.
var ErrShortSignal = errors.New("signal shorter than maximum delay")

// Mode selects the basis-update rule applied once per oversample substep.
type Mode int

const (
	// ModeQR orthonormalizes the damped step with an economy QR factorization.
	ModeQR Mode = iota
	// ModeGradient takes a projected gradient step followed by a soft
	// orthogonality correction.
	ModeGradient
	// ModeSVD replaces the damped step with its polar factor.
	ModeSVD
)

func (m Mode) String() string {
	switch m {
	case ModeQR:
		return "qr"
	case ModeGradient:
		return "gradient"
	case ModeSVD:
		return "svd"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts "qr", "gradient" or "svd" (case-insensitive) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "qr":
		return ModeQR, nil
	case "gradient", "grad":
		return ModeGradient, nil
	case "svd":
		return ModeSVD, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, s)
}

// Config holds the tunables of a single Analyze run.
type Config struct {
	Oversample int     // basis-update substeps per sample
	Alpha      float64 // covariance decay, in [0, 1)
	Epsilon    float64 // gradient-mode step size
	Delta      float64 // damping between the prior basis and B·A, in [0, 1]
	Gamma      float64 // normalization floor, > 0
	Normalize  bool    // energy-normalize covariance updates and distances
	Randomize  bool    // rotate the initial basis by a random unitary
	Seed       uint64  // seed for Randomize; 0 draws a fresh seed
	Mode       Mode
	Corrected  bool // apply Procrustes realignment in QR and SVD modes
	Pad        bool // left-pad the signal with zeros so output length equals input length

	// DiscardBases skips recording the per-sample basis snapshots. Long
	// recordings with large N otherwise hold T·N·k values in memory.
	DiscardBases bool

	// Progress, if set, is called after every processed sample with the
	// number of samples completed and the total expected.
	Progress func(done, total int)
}

// DefaultConfig returns the defaults used when no configuration is given.
func DefaultConfig() Config {
	return Config{
		Oversample: 1,
		Alpha:      0.999,
		Epsilon:    0.0001,
		Delta:      0.01,
		Gamma:      0.01,
		Randomize:  true,
		Mode:       ModeQR,
		Corrected:  true,
	}
}

// Validate checks cfg against the delay set and target rank.
func (c Config) Validate(delays []int, k int) error {
	n := len(delays)
	if n == 0 {
		return fmt.Errorf("%w: delay set is empty", ErrInvalidConfig)
	}
	for j, d := range delays {
		if d < 0 {
			return fmt.Errorf("%w: delay[%d] = %d is negative", ErrInvalidConfig, j, d)
		}
		if d > delays[n-1] {
			return fmt.Errorf("%w: delay[%d] = %d exceeds the last delay %d", ErrInvalidConfig, j, d, delays[n-1])
		}
	}
	if k < 1 || k > n {
		return fmt.Errorf("%w: rank k = %d must be in [1, %d]", ErrInvalidConfig, k, n)
	}
	if c.Oversample < 1 {
		return fmt.Errorf("%w: oversample must be >= 1, got %d", ErrInvalidConfig, c.Oversample)
	}
	if !(c.Gamma > 0) {
		return fmt.Errorf("%w: gamma must be > 0, got %g", ErrInvalidConfig, c.Gamma)
	}
	if !(c.Alpha >= 0 && c.Alpha < 1) {
		return fmt.Errorf("%w: alpha must be in [0, 1), got %g", ErrInvalidConfig, c.Alpha)
	}
	if !(c.Delta >= 0 && c.Delta <= 1) {
		return fmt.Errorf("%w: delta must be in [0, 1], got %g", ErrInvalidConfig, c.Delta)
	}
	if !(c.Epsilon >= 0) {
		return fmt.Errorf("%w: epsilon must be non-negative, got %g", ErrInvalidConfig, c.Epsilon)
	}
	switch c.Mode {
	case ModeQR, ModeGradient, ModeSVD:
	default:
		return fmt.Errorf("%w: unknown mode %v", ErrInvalidConfig, c.Mode)
	}
	return nil
}
