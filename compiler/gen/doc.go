// Package gen resolves nexusgen schemas and emits them for the target
// languages.
//
// The package owns everything that is shared between languages: the type
// graph, identifier resolution, kind tables, the output writers and the
// orchestration of a run. Each language lives in its own subpackage and
// plugs in as a Backend.
//
// # Architecture
//
// The generation pipeline follows this flow:
//
//	schema.Schema (compiler/load or hand built)
//	        ↓
//	   Graph (resolved references, placement, cycle checks)
//	        ↓
//	   Backend.Prepare per language (Names + TypeTable)
//	        ↓
//	   Backend.Render (golang, java, python, typescript)
//	        ↓
//	   Output (staged and promoted, or printed, or kept in memory)
//
// Languages are emitted concurrently and share no mutable state.
//
// # Key Types
//
//   - Graph: Every named, nested and anonymous type as a Node, plus services
//   - Ref: A field or operation type (node, scalar, list, map, existing)
//   - Names: The identifiers and file names of one language
//   - TypeTable: How each abstract kind is written in one language
//   - Backend: The capability set of a language
//   - Generator: Runs every target and collects per-language results
//
// # Error Handling
//
// Errors are typed and match a sentinel with errors.Is:
//
//   - SchemaValidationError (UnresolvedReferenceError, StructuralCycleError,
//     DuplicateNameError): ErrInvalidSchema
//   - UnsupportedTypeError: ErrUnsupportedType
//   - IdentifierCollisionError: ErrIdentifierCollision
//   - OutputError: ErrOutput
//   - InternalError: ErrInternal
//   - ConfigError: ErrInvalidConfig
//
// Problems are collected into an ErrorList so a run reports all of them.
// Errors of one language are wrapped in a LanguageError:
//
//	res, err := g.Generate(ctx, s, targets)
//	for _, e := range gen.Flatten(err) {
//	    var lerr *gen.LanguageError
//	    if errors.As(e, &lerr) {
//	        // lerr.Language failed, res.Languages holds the others
//	    }
//	}
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	g, err := gen.NewGenerator(backends,
//	    gen.WithWorkers(4),
//	    gen.WithHeader("Code generated by nexusgen. DO NOT EDIT."),
//	    gen.WithLogger(logger),
//	)
//
// Per-language settings are carried by Target:
//
//	targets := []gen.Target{
//	    {Language: gen.LangGo, OutDir: "gen/go", Package: "orders"},
//	    {Language: gen.LangPython, OutDir: "gen/python"},
//	}
//
// # Usage
//
// The compiler package wires the four backends:
//
//	import "github.com/syssam/nexusgen/compiler"
//
//	res, err := compiler.GenerateFile(ctx, "orders.yaml", targets)
//
// # Code Organization
//
//   - backend.go: Backend, Context and the shared emit steps
//   - config.go: Config, Target, DefaultHeader
//   - errors.go: Structured error types
//   - generate.go: Generator
//   - graph.go: Graph, Node and Ref
//   - language.go: Language and Runtime enumerations
//   - names.go: Identifier scopes and Names
//   - naming.go: Casing conversions
//   - option.go: Functional options
//   - output.go: MemoryOutput and DryRunOutput
//   - printer.go: Indented text builder for the text backends
//   - typemap.go: Kind tables and the kind check
//   - writer.go: FilesystemOutput
//
// # Generated Output
//
// Every top-level type and every service becomes one unit. Nested types
// are written into the unit of their top-level ancestor. The file layout
// of a unit is decided by the language convention:
//
//	go/         one file per unit, e.g. complex_input.go
//	java/       one file per class below the package directory
//	python/     one module per unit plus __init__.py
//	typescript/ one module per unit plus index.ts
package gen
