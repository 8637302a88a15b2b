package speech

import (
	"log/slog"
	"time"
)

// DefaultRateLimit is the minimum interval between two dispatched utterances.
const DefaultRateLimit = 1200 * time.Millisecond

// Config holds dispatcher configuration.
// Use functional options (WithXxx) to set these values.
type Config struct {
	// RateLimit is the minimum gap between dispatches. Zero disables
	// limiting; negative values are rejected.
	RateLimit time.Duration

	// Clock drives the rate limiter. Tests use a ManualClock.
	Clock Clock

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring a Dispatcher.
type Option func(*Config)

// WithRateLimit sets the minimum interval between dispatches.
func WithRateLimit(d time.Duration) Option {
	return func(c *Config) {
		c.RateLimit = d
	}
}

// WithClock sets the time source.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() *Config {
	return &Config{
		RateLimit: DefaultRateLimit,
		Clock:     SystemClock{},
		Logger:    slog.Default(),
	}
}

// Apply applies functional options to the config.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	return nil
}
