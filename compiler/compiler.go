// Package compiler wires the schema loader, the type graph and the
// language backends together.
//
//	err := compiler.GenerateFile(ctx, "service.yaml", []gen.Target{
//		{Language: gen.LangGo, OutDir: "gen/go"},
//		{Language: gen.LangTypeScript, OutDir: "gen/ts"},
//	})
package compiler

import (
	"context"

	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/compiler/gen/golang"
	"github.com/syssam/nexusgen/compiler/gen/java"
	"github.com/syssam/nexusgen/compiler/gen/python"
	"github.com/syssam/nexusgen/compiler/gen/typescript"
	"github.com/syssam/nexusgen/compiler/load"
	"github.com/syssam/nexusgen/schema"
)

// Backend returns the backend of lang.
func Backend(lang gen.Language) (gen.Backend, error) {
	switch lang {
	case gen.LangGo:
		return golang.Backend(), nil
	case gen.LangJava:
		return java.Backend(), nil
	case gen.LangPython:
		return python.Backend(), nil
	case gen.LangTypeScript:
		return typescript.Backend(), nil
	default:
		return gen.Backend{}, gen.NewConfigError("Language", lang, "unsupported language")
	}
}

// Backends returns every backend, in language order.
func Backends() []gen.Backend {
	langs := gen.Languages()
	backends := make([]gen.Backend, 0, len(langs))
	for _, lang := range langs {
		b, err := Backend(lang)
		if err != nil {
			panic(err)
		}
		backends = append(backends, b)
	}
	return backends
}

// NewGenerator returns a generator with every backend registered.
func NewGenerator(opts ...gen.Option) (*gen.Generator, error) {
	return gen.NewGenerator(Backends(), opts...)
}

// Generate emits s for every target.
func Generate(ctx context.Context, s *schema.Schema, targets []gen.Target, opts ...gen.Option) (*gen.Result, error) {
	g, err := NewGenerator(opts...)
	if err != nil {
		return nil, err
	}
	return g.Generate(ctx, s, targets)
}

// GenerateFile loads the definition at path and emits it for every target.
func GenerateFile(ctx context.Context, path string, targets []gen.Target, opts ...gen.Option) (*gen.Result, error) {
	s, err := load.Load(path)
	if err != nil {
		return nil, err
	}
	return Generate(ctx, s, targets, opts...)
}

// Validate loads the definition at path and resolves it without emitting
// anything.
func Validate(path string) (*gen.Graph, error) {
	s, err := load.Load(path)
	if err != nil {
		return nil, err
	}
	return gen.NewGraph(s)
}
