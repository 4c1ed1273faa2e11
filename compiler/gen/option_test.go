package gen

import (
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestWithHeader(t *testing.T) {
	t.Run("sets header", func(t *testing.T) {
		c := &Config{}
		err := WithHeader("Custom header")(c)

		require.NoError(t, err)
		assert.Equal(t, "Custom header", c.Header)
	})

	t.Run("empty header is rejected", func(t *testing.T) {
		c := &Config{Header: "existing"}
		err := WithHeader("")(c)

		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.Equal(t, "existing", c.Header)
	})
}

func TestWithMaxIdentifierLength(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"no limit", 0, false},
		{"limit", 64, false},
		{"negative", -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			err := WithMaxIdentifierLength(tt.n)(c)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.n, c.MaxIdentifierLength)
		})
	}
}

func TestWithWorkers(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{"one", 1, false},
		{"many", 16, false},
		{"zero", 0, true},
		{"negative", -4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			err := WithWorkers(tt.n)(c)
			if tt.wantErr {
				assert.True(t, IsConfigError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.n, c.Workers)
		})
	}
}

func TestNilOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"output", WithOutput(nil)},
		{"tracer provider", WithTracerProvider(nil)},
		{"meter provider", WithMeterProvider(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, IsConfigError(tt.opt(&Config{})))
		})
	}
}

func TestApply(t *testing.T) {
	t.Run("stops at the first error", func(t *testing.T) {
		c := &Config{}
		err := c.Apply(WithWorkers(0), WithHeader("h"))
		require.Error(t, err)
		assert.Empty(t, c.Header)
	})

	t.Run("ApplyAll collects every error", func(t *testing.T) {
		c := &Config{}
		err := c.ApplyAll(WithWorkers(0), WithHeader("h"), WithMaxIdentifierLength(-1))
		require.Error(t, err)
		assert.Equal(t, "h", c.Header)
		assert.Len(t, err.(interface{ Unwrap() []error }).Unwrap(), 2)
	})
}

func TestNewConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := NewConfig()
		require.NoError(t, err)
		assert.Equal(t, DefaultHeader, c.Header)
		assert.Equal(t, runtime.GOMAXPROCS(0), c.Workers)
		assert.IsType(t, &FilesystemOutput{}, c.Output)
		assert.Equal(t, otel.GetTracerProvider(), c.TracerProvider)
		assert.Equal(t, zerolog.Disabled, c.Logger.GetLevel())
	})

	t.Run("options", func(t *testing.T) {
		out := NewMemoryOutput()
		tp := tracenoop.NewTracerProvider()
		mp := metricnoop.NewMeterProvider()
		c, err := NewConfig(
			WithHeader("h"),
			WithWorkers(2),
			WithOutput(out),
			WithTracerProvider(tp),
			WithMeterProvider(mp),
			WithLogger(zerolog.New(nil).Level(zerolog.WarnLevel)),
		)
		require.NoError(t, err)
		assert.Equal(t, "h", c.Header)
		assert.Equal(t, 2, c.Workers)
		assert.Same(t, out, c.Output)
		assert.Equal(t, tp, c.TracerProvider)
		assert.Equal(t, mp, c.MeterProvider)
		assert.Equal(t, zerolog.WarnLevel, c.Logger.GetLevel())
	})

	t.Run("MustNewConfig panics", func(t *testing.T) {
		assert.Panics(t, func() { MustNewConfig(WithWorkers(0)) })
		assert.NotPanics(t, func() { MustNewConfig() })
	})
}
