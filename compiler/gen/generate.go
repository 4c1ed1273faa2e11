package gen

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/nexusgen/schema"
)

const instrumentationName = "github.com/syssam/nexusgen"

// Generator emits a schema for a set of target languages.
type Generator struct {
	cfg      *Config
	backends map[Language]Backend
	tracer   trace.Tracer
	written  metric.Int64Counter
}

// LanguageResult is the outcome of one target.
type LanguageResult struct {
	Language Language
	Root     string
	// Files lists the generated paths, relative to Root, sorted.
	Files []string
	// Err is set if the language failed; nothing was written for it.
	Err error
}

// Result is the outcome of a run, one entry per target in target order.
type Result struct {
	Graph     *Graph
	Languages []LanguageResult
}

// NewGenerator returns a generator using the given backends.
func NewGenerator(backends []Backend, opts ...Option) (*Generator, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		cfg:      cfg,
		backends: make(map[Language]Backend, len(backends)),
		tracer:   cfg.TracerProvider.Tracer(instrumentationName),
	}
	for _, b := range backends {
		if b.Render == nil {
			return nil, NewConfigError("Backend", b.Language, "backend has no renderer")
		}
		g.backends[b.Language] = b
	}
	g.written, err = cfg.MeterProvider.Meter(instrumentationName).Int64Counter("nexusgen.files.written",
		metric.WithUnit("{file}"),
		metric.WithDescription("Number of generated files handed to the output"),
	)
	if err != nil {
		return nil, fmt.Errorf("create files counter: %w", err)
	}
	return g, nil
}

// Config returns the generator configuration.
func (g *Generator) Config() *Config {
	return g.cfg
}

// Generate resolves s and emits every target.
//
// Schema errors fail every target and are returned before anything is
// emitted. Errors of a single language (unsupported kinds, identifier
// collisions) fail only that language; the others are still written and
// the returned error lists every failure. An output error aborts the run.
func (g *Generator) Generate(ctx context.Context, s *schema.Schema, targets []Target) (*Result, error) {
	ctx, span := g.tracer.Start(ctx, "nexusgen.generate")
	defer span.End()
	if err := g.checkTargets(targets); err != nil {
		return nil, g.fail(span, err)
	}
	_, rspan := g.tracer.Start(ctx, "nexusgen.resolve")
	graph, err := NewGraph(s)
	rspan.End()
	if err != nil {
		g.cfg.Logger.Debug().Err(err).Msg("schema rejected")
		return nil, g.fail(span, err)
	}
	g.cfg.Logger.Debug().
		Int("types", len(graph.Nodes)).
		Int("services", len(graph.Services)).
		Msg("schema resolved")
	return g.GenerateGraph(ctx, graph, targets)
}

// GenerateGraph emits every target from an already resolved graph.
func (g *Generator) GenerateGraph(ctx context.Context, graph *Graph, targets []Target) (*Result, error) {
	if err := g.checkTargets(targets); err != nil {
		return nil, err
	}
	res := &Result{Graph: graph, Languages: make([]LanguageResult, len(targets))}
	var mu sync.Mutex
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for i, t := range targets {
		res.Languages[i] = LanguageResult{Language: t.Language, Root: t.OutDir}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files, err := g.emit(ctx, graph, t)
			if err != nil {
				mu.Lock()
				res.Languages[i].Err = &LanguageError{Language: t.Language, Err: err}
				mu.Unlock()
				g.cfg.Logger.Warn().Str("lang", t.Language.String()).Err(err).Msg("generation failed")
				return nil
			}
			if err := g.write(ctx, t, files); err != nil {
				return &LanguageError{Language: t.Language, Err: err}
			}
			paths := make([]string, len(files))
			for j, f := range files {
				paths[j] = f.Path
			}
			mu.Lock()
			res.Languages[i].Files = paths
			mu.Unlock()
			g.cfg.Logger.Info().
				Str("lang", t.Language.String()).
				Str("root", t.OutDir).
				Int("files", len(files)).
				Msg("generated")
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return res, err
	}
	var errs ErrorList
	for _, lr := range res.Languages {
		errs.Add(lr.Err)
	}
	return res, errs.Err()
}

// emit renders the files of one target without touching the output.
func (g *Generator) emit(ctx context.Context, graph *Graph, t Target) ([]File, error) {
	_, span := g.tracer.Start(ctx, "nexusgen.emit",
		trace.WithAttributes(attribute.String("nexusgen.language", t.Language.String())))
	defer span.End()
	files, err := g.backends[t.Language].Emit(graph, t, g.cfg)
	if err != nil {
		return nil, g.fail(span, err)
	}
	span.SetAttributes(attribute.Int("nexusgen.files", len(files)))
	return files, nil
}

func (g *Generator) write(ctx context.Context, t Target, files []File) error {
	ctx, span := g.tracer.Start(ctx, "nexusgen.write",
		trace.WithAttributes(
			attribute.String("nexusgen.language", t.Language.String()),
			attribute.String("nexusgen.root", t.OutDir),
		))
	defer span.End()
	if err := g.cfg.Output.Write(ctx, t.Language, t.OutDir, files); err != nil {
		return g.fail(span, err)
	}
	g.written.Add(ctx, int64(len(files)), metric.WithAttributes(attribute.String("nexusgen.language", t.Language.String())))
	return nil
}

func (g *Generator) checkTargets(targets []Target) error {
	if len(targets) == 0 {
		return NewConfigError("Targets", nil, "at least one target language is required")
	}
	var errs ErrorList
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			errs.Add(err)
			continue
		}
		if _, ok := g.backends[t.Language]; !ok {
			errs.Add(NewConfigError("Targets", t.Language, "no backend registered for language"))
		}
	}
	return errs.Err()
}

func (g *Generator) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
