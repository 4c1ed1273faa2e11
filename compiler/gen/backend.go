package gen

import (
	"cmp"
	"slices"
)

// File is a generated file. Path is relative to the language root and
// uses forward slashes.
type File struct {
	Path    string
	Content []byte
}

// Context is the read-only state a backend renders from. It is built once
// per language and never shared between languages.
type Context struct {
	Graph  *Graph
	Target Target
	Names  *Names
	Types  TypeTable
	Header string
}

// Backend is the capability set of a target language.
type Backend struct {
	Language   Language
	Convention Convention
	// Types is the default kind table; targets may override entries.
	Types TypeTable
	// DefaultPackage is used when a target sets no package.
	DefaultPackage string
	// Render produces the files of one language.
	Render func(*Context) ([]File, error)
}

// Prepare resolves names and checks kind mappings for t. Both passes run
// to completion, so the error lists every problem found.
func (b Backend) Prepare(g *Graph, t Target, cfg *Config) (*Context, error) {
	if t.Package == "" {
		t.Package = b.DefaultPackage
	}
	table := b.Types.With(t.TypeOverrides)
	var errs ErrorList
	names, err := ResolveNames(g, b.Language, b.Convention, cfg.MaxIdentifierLength)
	errs.Add(err)
	errs.Add(CheckTypes(g, b.Language, table))
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return &Context{
		Graph:  g,
		Target: t,
		Names:  names,
		Types:  table,
		Header: cfg.Header,
	}, nil
}

// Emit renders the files of one language, sorted by path. Nothing is
// rendered if preparation fails.
func (b Backend) Emit(g *Graph, t Target, cfg *Config) ([]File, error) {
	ctx, err := b.Prepare(g, t, cfg)
	if err != nil {
		return nil, err
	}
	files, err := b.Render(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(files, func(a, b File) int { return cmp.Compare(a.Path, b.Path) })
	if err := CheckPaths(files); err != nil {
		return nil, err
	}
	return files, nil
}
