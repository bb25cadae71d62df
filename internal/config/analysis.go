package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/embedtrack/internal/fsutil"
	"github.com/banshee-data/embedtrack/internal/subspace"
)

// Numeric domains accepted by numeric_domain.
const (
	DomainReal    = "real"
	DomainComplex = "complex"
)

// maxFileSize caps configuration files at 1MB.
const maxFileSize = 1 * 1024 * 1024

// AnalysisConfig is the on-disk form of an analysis run. Every field is
// optional; the Get* methods supply defaults for anything left unset, so
// partial files are safe.
type AnalysisConfig struct {
	// Embedding
	Delays []int `json:"delays,omitempty" yaml:"delays,omitempty"`
	K      *int  `json:"k,omitempty" yaml:"k,omitempty"`
	Pad    *bool `json:"pad,omitempty" yaml:"pad,omitempty"`

	// Covariance
	Alpha     *float64 `json:"alpha,omitempty" yaml:"alpha,omitempty"`
	Gamma     *float64 `json:"gamma,omitempty" yaml:"gamma,omitempty"`
	Normalize *bool    `json:"normalize,omitempty" yaml:"normalize,omitempty"`

	// Basis update
	Mode       *string  `json:"mode,omitempty" yaml:"mode,omitempty"` // gradient, qr or svd
	Oversample *int     `json:"oversample,omitempty" yaml:"oversample,omitempty"`
	Epsilon    *float64 `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`
	Delta      *float64 `json:"delta,omitempty" yaml:"delta,omitempty"`
	Corrected  *bool    `json:"corrected,omitempty" yaml:"corrected,omitempty"`

	// Initialization
	Randomize *bool   `json:"randomize,omitempty" yaml:"randomize,omitempty"`
	Seed      *uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	NumericDomain *string `json:"numeric_domain,omitempty" yaml:"numeric_domain,omitempty"`

	// Reporting
	WarmupFraction *float64 `json:"warmup_fraction,omitempty" yaml:"warmup_fraction,omitempty"`
	DiscardBases   *bool    `json:"discard_bases,omitempty" yaml:"discard_bases,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultAnalysisConfig returns a config with every defaulted field set.
// Delays and K have no default and stay nil.
func DefaultAnalysisConfig() *AnalysisConfig {
	d := subspace.DefaultConfig()
	return &AnalysisConfig{
		Pad:            ptrBool(d.Pad),
		Alpha:          ptrFloat64(d.Alpha),
		Gamma:          ptrFloat64(d.Gamma),
		Normalize:      ptrBool(d.Normalize),
		Mode:           ptrString(d.Mode.String()),
		Oversample:     ptrInt(d.Oversample),
		Epsilon:        ptrFloat64(d.Epsilon),
		Delta:          ptrFloat64(d.Delta),
		Corrected:      ptrBool(d.Corrected),
		Randomize:      ptrBool(d.Randomize),
		NumericDomain:  ptrString(DomainReal),
		WarmupFraction: ptrFloat64(0.1),
		DiscardBases:   ptrBool(false),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a .json, .yaml or .yml file.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	return LoadAnalysisConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadAnalysisConfigFS is LoadAnalysisConfig over an arbitrary filesystem.
func LoadAnalysisConfigFS(fsys fsutil.FileSystem, path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &AnalysisConfig{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", strings.TrimPrefix(ext, "."), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set. Checks that need both delays
// and k happen in ToSubspace.
func (c *AnalysisConfig) Validate() error {
	if c.Delays != nil && len(c.Delays) == 0 {
		return fmt.Errorf("delays must not be empty")
	}
	for i, d := range c.Delays {
		if d < 0 {
			return fmt.Errorf("delays[%d] must be non-negative, got %d", i, d)
		}
	}
	if c.K != nil && *c.K < 1 {
		return fmt.Errorf("k must be at least 1, got %d", *c.K)
	}
	if c.K != nil && c.Delays != nil && *c.K > len(c.Delays) {
		return fmt.Errorf("k must not exceed the number of delays (%d), got %d", len(c.Delays), *c.K)
	}
	if c.Oversample != nil && *c.Oversample < 1 {
		return fmt.Errorf("oversample must be at least 1, got %d", *c.Oversample)
	}
	if c.Alpha != nil && !(*c.Alpha >= 0 && *c.Alpha < 1) {
		return fmt.Errorf("alpha must be in [0, 1), got %g", *c.Alpha)
	}
	if c.Gamma != nil && !(*c.Gamma > 0) {
		return fmt.Errorf("gamma must be positive, got %g", *c.Gamma)
	}
	if c.Delta != nil && !(*c.Delta >= 0 && *c.Delta <= 1) {
		return fmt.Errorf("delta must be in [0, 1], got %g", *c.Delta)
	}
	if c.Epsilon != nil && !(*c.Epsilon >= 0) {
		return fmt.Errorf("epsilon must be non-negative, got %g", *c.Epsilon)
	}
	if c.Mode != nil {
		if _, err := subspace.ParseMode(*c.Mode); err != nil {
			return err
		}
	}
	if c.NumericDomain != nil && *c.NumericDomain != DomainReal && *c.NumericDomain != DomainComplex {
		return fmt.Errorf("numeric_domain must be %q or %q, got %q", DomainReal, DomainComplex, *c.NumericDomain)
	}
	if c.WarmupFraction != nil && !(*c.WarmupFraction >= 0 && *c.WarmupFraction < 1) {
		return fmt.Errorf("warmup_fraction must be in [0, 1), got %g", *c.WarmupFraction)
	}
	return nil
}

// GetK returns k, or 0 when unset.
func (c *AnalysisConfig) GetK() int {
	if c.K == nil {
		return 0
	}
	return *c.K
}

func (c *AnalysisConfig) GetPad() bool {
	if c.Pad == nil {
		return false
	}
	return *c.Pad
}

func (c *AnalysisConfig) GetAlpha() float64 {
	if c.Alpha == nil {
		return 0.999
	}
	return *c.Alpha
}

func (c *AnalysisConfig) GetGamma() float64 {
	if c.Gamma == nil {
		return 0.01
	}
	return *c.Gamma
}

func (c *AnalysisConfig) GetNormalize() bool {
	if c.Normalize == nil {
		return false
	}
	return *c.Normalize
}

// GetMode parses the mode, falling back to QR when unset or unparseable.
func (c *AnalysisConfig) GetMode() subspace.Mode {
	if c.Mode == nil {
		return subspace.ModeQR
	}
	m, err := subspace.ParseMode(*c.Mode)
	if err != nil {
		return subspace.ModeQR
	}
	return m
}

func (c *AnalysisConfig) GetOversample() int {
	if c.Oversample == nil {
		return 1
	}
	return *c.Oversample
}

func (c *AnalysisConfig) GetEpsilon() float64 {
	if c.Epsilon == nil {
		return 1e-4
	}
	return *c.Epsilon
}

func (c *AnalysisConfig) GetDelta() float64 {
	if c.Delta == nil {
		return 0.01
	}
	return *c.Delta
}

func (c *AnalysisConfig) GetCorrected() bool {
	if c.Corrected == nil {
		return true
	}
	return *c.Corrected
}

func (c *AnalysisConfig) GetRandomize() bool {
	if c.Randomize == nil {
		return true
	}
	return *c.Randomize
}

// GetSeed returns the seed, 0 meaning a fresh one per run.
func (c *AnalysisConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 0
	}
	return *c.Seed
}

func (c *AnalysisConfig) GetNumericDomain() string {
	if c.NumericDomain == nil || *c.NumericDomain == "" {
		return DomainReal
	}
	return *c.NumericDomain
}

func (c *AnalysisConfig) GetWarmupFraction() float64 {
	if c.WarmupFraction == nil {
		return 0.1
	}
	return *c.WarmupFraction
}

func (c *AnalysisConfig) GetDiscardBases() bool {
	if c.DiscardBases == nil {
		return false
	}
	return *c.DiscardBases
}

// Complex reports whether the run should analyse the analytic signal.
func (c *AnalysisConfig) Complex() bool {
	return c.GetNumericDomain() == DomainComplex
}

// ToSubspace resolves defaults and returns the delays, rank and engine
// configuration for subspace.Analyze. The result is validated against
// subspace's own rules.
func (c *AnalysisConfig) ToSubspace() ([]int, int, subspace.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, 0, subspace.Config{}, fmt.Errorf("%w: %v", subspace.ErrInvalidConfig, err)
	}
	cfg := subspace.Config{
		Oversample:   c.GetOversample(),
		Alpha:        c.GetAlpha(),
		Epsilon:      c.GetEpsilon(),
		Delta:        c.GetDelta(),
		Gamma:        c.GetGamma(),
		Normalize:    c.GetNormalize(),
		Randomize:    c.GetRandomize(),
		Seed:         c.GetSeed(),
		Mode:         c.GetMode(),
		Corrected:    c.GetCorrected(),
		Pad:          c.GetPad(),
		DiscardBases: c.GetDiscardBases(),
	}
	delays := append([]int(nil), c.Delays...)
	k := c.GetK()
	if err := cfg.Validate(delays, k); err != nil {
		return nil, 0, subspace.Config{}, err
	}
	return delays, k, cfg, nil
}
