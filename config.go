package hestonmc

import (
	"io"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"hestonmc/rng"
)

// Payoff maps a batch of simulated stock-price paths to one scalar payoff
// per path.
type Payoff func(s *mat.Dense) []float64

// Simulator generates one batch of antithetic-quadrupled stock-price and
// variance paths. Package schemes' three kernels all satisfy this shape;
// callers bind a scheme's extra options (QEOptions, TGOptions) with a
// closure before handing the result to McPrice, mirroring the reference
// pricer's single generic `simulate` callable.
type Simulator func(g *rng.Generator, state MarketState, params HestonParameters, t float64, nt, nSim int) (s, v *mat.Dense, err error)

// PricingConfig configures one McPrice call. State, Params, Simulate and
// Payoff are mandatory; everything else has a documented default via
// DefaultPricingConfig.
type PricingConfig struct {
	State  MarketState `yaml:"-"`
	Params HestonParameters `yaml:"-"`

	Simulate Simulator `yaml:"-"`
	Payoff   Payoff    `yaml:"-"`

	// ControlVariatePayoff and Mu enable control-variate variance
	// reduction. Mu is required whenever ControlVariatePayoff is set; a Mu
	// without a ControlVariatePayoff is ignored.
	ControlVariatePayoff Payoff   `yaml:"-"`
	Mu                   *float64 `yaml:"-"`

	// LogOutput is where Verbose diagnostics are flushed when McPrice
	// finishes pricing; a call that returns an error (including a canceled
	// context) writes nothing. Defaults to os.Stdout when Verbose is set and
	// LogOutput is left nil.
	LogOutput io.Writer `yaml:"-"`

	T                  float64 `yaml:"t"`
	NT                 int     `yaml:"n_t"`
	AbsoluteError      float64 `yaml:"absolute_error"`
	ConfidenceLevel    float64 `yaml:"confidence_level"`
	BatchSize          int     `yaml:"batch_size"`
	MaxIter            int     `yaml:"max_iter"`
	ControlVariateIter int     `yaml:"control_variate_iter"`
	Seed               *uint64 `yaml:"seed"`
	Verbose            bool    `yaml:"verbose"`
}

// DefaultPricingConfig returns the documented numeric defaults: T=1,
// NT=100, AbsoluteError=0.01, ConfidenceLevel=0.05, BatchSize=10_000,
// MaxIter=100_000, ControlVariateIter=1_000. State, Params, Simulate and
// Payoff are left zero-valued; callers must set them.
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		T:                  1,
		NT:                 100,
		AbsoluteError:      0.01,
		ConfidenceLevel:    0.05,
		BatchSize:          10_000,
		MaxIter:            100_000,
		ControlVariateIter: 1_000,
	}
}

// LoadPricingConfig reads the YAML-encoded numeric knobs of a
// PricingConfig from r, layered on top of DefaultPricingConfig. The
// caller is still responsible for setting State, Params, Simulate,
// Payoff and any control-variate fields after loading, since those carry
// Go values (functions, struct literals) that have no YAML
// representation.
func LoadPricingConfig(r io.Reader) (PricingConfig, error) {
	cfg := DefaultPricingConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return PricingConfig{}, err
	}
	return cfg, nil
}

func (cfg PricingConfig) validate() error {
	switch {
	case cfg.T <= 0:
		return ErrInvalidTimeHorizon
	case cfg.NT < 2:
		return ErrInvalidSteps
	case cfg.BatchSize < 1:
		return ErrInvalidBatchSize
	case cfg.MaxIter < 1:
		return ErrInvalidMaxIter
	case cfg.AbsoluteError <= 0:
		return ErrInvalidAbsErr
	case cfg.ConfidenceLevel <= 0 || cfg.ConfidenceLevel >= 1:
		return ErrInvalidAlpha
	case cfg.ControlVariatePayoff != nil && cfg.Mu == nil:
		return ErrMissingControlVariateMean
	}
	return nil
}
