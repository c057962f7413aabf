package gmm

import "errors"

// Config holds configuration for a mixture fit.
type Config struct {
	// Components is the number of Gaussian components (K).
	Components int

	// MaxIterations bounds the EM loop.
	MaxIterations int

	// Tolerance is the convergence threshold: the fit stops once the
	// absolute change in mean per-sample log-likelihood between
	// consecutive iterations falls below it.
	Tolerance float64

	// Seed fixes the random initialization for reproducible fits.
	Seed int64

	// VarianceFloor is the minimum per-dimension variance. It prevents
	// components from collapsing to zero variance, which would produce
	// infinite likelihoods.
	VarianceFloor float64

	// WeightFloor is the minimum component weight. Weights are floored
	// and renormalized so they still sum to 1.
	WeightFloor float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithComponents sets the number of mixture components.
func WithComponents(k int) ConfigOption {
	return func(c *Config) {
		c.Components = k
	}
}

// WithMaxIterations sets the EM iteration budget.
func WithMaxIterations(n int) ConfigOption {
	return func(c *Config) {
		c.MaxIterations = n
	}
}

// WithTolerance sets the convergence tolerance.
func WithTolerance(tol float64) ConfigOption {
	return func(c *Config) {
		c.Tolerance = tol
	}
}

// WithSeed sets the initialization seed.
func WithSeed(seed int64) ConfigOption {
	return func(c *Config) {
		c.Seed = seed
	}
}

// DefaultConfig returns a Config with the documented defaults: 64
// components, 100 iterations, 1e-3 tolerance, seed 42, 1e-6 variance
// floor.
func DefaultConfig() *Config {
	return &Config{
		Components:    64,
		MaxIterations: 100,
		Tolerance:     1e-3,
		Seed:          42,
		VarianceFloor: 1e-6,
		WeightFloor:   1e-10,
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is valid and complete.
func (c *Config) Validate() error {
	if c.Components < 1 {
		return errors.New("gmm config: Components must be at least 1")
	}
	if c.MaxIterations < 1 {
		return errors.New("gmm config: MaxIterations must be at least 1")
	}
	if c.Tolerance <= 0 {
		return errors.New("gmm config: Tolerance must be positive")
	}
	if c.VarianceFloor <= 0 {
		return errors.New("gmm config: VarianceFloor must be positive")
	}
	if c.WeightFloor <= 0 {
		return errors.New("gmm config: WeightFloor must be positive")
	}
	return nil
}
