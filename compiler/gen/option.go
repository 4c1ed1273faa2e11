package gen

import (
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		if header == "" {
			return NewConfigError("Header", nil, "header cannot be empty")
		}
		c.Header = header
		return nil
	}
}

// WithMaxIdentifierLength limits the length of generated identifiers.
// Identifiers that cannot be disambiguated within the limit fail with an
// IdentifierCollisionError.
func WithMaxIdentifierLength(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigError("MaxIdentifierLength", n, "limit cannot be negative")
		}
		c.MaxIdentifierLength = n
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("Workers", n, "at least one worker is required")
		}
		c.Workers = n
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = l
		return nil
	}
}

// WithOutput sets where generated files go.
func WithOutput(o Output) Option {
	return func(c *Config) error {
		if o == nil {
			return NewConfigError("Output", nil, "output cannot be nil")
		}
		c.Output = o
		return nil
	}
}

// WithTracerProvider sets the tracer provider for generation spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) error {
		if tp == nil {
			return NewConfigError("TracerProvider", nil, "tracer provider cannot be nil")
		}
		c.TracerProvider = tp
		return nil
	}
}

// WithMeterProvider sets the meter provider for generation metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) error {
		if mp == nil {
			return NewConfigError("MeterProvider", nil, "meter provider cannot be nil")
		}
		c.MeterProvider = mp
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the given options and defaults for
// everything left unset.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{Logger: zerolog.Nop()}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	c.defaults()
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
