// Package telemetry installs the OpenTelemetry SDK used by --trace. Spans
// and metrics of a run are printed to a writer when it shuts down.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/syssam/nexusgen/compiler/gen"
)

// ServiceName is the service.name resource attribute.
const ServiceName = "nexusgen"

// Providers holds the SDK tracer and meter providers.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// Setup returns providers exporting to w. Callers must call Shutdown to
// flush them.
func Setup(w io.Writer, version string) (*Providers, error) {
	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version),
	)
	spans, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}
	metrics, err := stdoutmetric.New(stdoutmetric.WithWriter(w), stdoutmetric.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}
	return &Providers{
		// Spans are exported as they end, so a run interrupted by an error
		// still prints what happened.
		Tracer: sdktrace.NewTracerProvider(
			sdktrace.WithSyncer(spans),
			sdktrace.WithResource(res),
		),
		Meter: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metrics)),
			sdkmetric.WithResource(res),
		),
	}, nil
}

// Options returns the generator options using p.
func (p *Providers) Options() []gen.Option {
	return []gen.Option{
		gen.WithTracerProvider(p.Tracer),
		gen.WithMeterProvider(p.Meter),
	}
}

// Shutdown flushes and stops both providers.
func (p *Providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.Tracer.Shutdown(ctx),
		p.Meter.Shutdown(ctx),
	)
}
