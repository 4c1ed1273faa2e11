package gen

import (
	"runtime"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/syssam/nexusgen/schema/field"
)

// DefaultHeader is the first comment line of every generated file.
const DefaultHeader = "Code generated by nexusgen. DO NOT EDIT."

// Config holds the settings shared by every target of a run.
type Config struct {
	// Header is written at the top of each generated file.
	Header string
	// MaxIdentifierLength limits generated identifiers. 0 means no limit.
	MaxIdentifierLength int
	// Workers bounds the number of languages emitted and files written
	// concurrently. Defaults to GOMAXPROCS.
	Workers int
	// Logger receives progress logs. Defaults to a no-op logger.
	Logger zerolog.Logger
	// Output receives the generated files. Defaults to the file system.
	Output Output
	// TracerProvider and MeterProvider default to the global providers.
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Target is one language to generate.
type Target struct {
	Language Language
	// OutDir is the output root of the language.
	OutDir string
	// Package is the package, module or namespace root. Backends have a
	// default.
	Package string
	Runtime Runtime
	// PrimitivePointers makes optional scalars pointers in Go.
	PrimitivePointers bool
	// TypeOverrides replace or add kind mappings.
	TypeOverrides map[field.Type]TypeMapping
}

// Validate checks the target settings.
func (t Target) Validate() error {
	if !t.Language.Valid() {
		return NewConfigError("Language", t.Language, "unsupported language")
	}
	if t.OutDir == "" {
		return NewConfigError("OutDir", nil, "output directory of "+t.Language.String()+" cannot be empty")
	}
	for k := range t.TypeOverrides {
		if !k.Valid() {
			return NewConfigError("TypeOverrides", k, "unknown kind")
		}
	}
	return nil
}

// defaults fills unset fields.
func (c *Config) defaults() {
	if c.Header == "" {
		c.Header = DefaultHeader
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Output == nil {
		c.Output = NewFilesystemOutput(c.Workers)
	}
	if c.TracerProvider == nil {
		c.TracerProvider = otel.GetTracerProvider()
	}
	if c.MeterProvider == nil {
		c.MeterProvider = otel.GetMeterProvider()
	}
}
