package gen

import (
	"context"
	"fmt"
	"io"
	"maps"
	"path"
	"slices"
	"sync"
)

// Output receives the files of one language. Implementations must be safe
// for concurrent use by different languages.
type Output interface {
	Write(ctx context.Context, lang Language, root string, files []File) error
}

// MemoryOutput keeps generated files in memory, keyed by root and path.
type MemoryOutput struct {
	mu    sync.Mutex
	files map[string]map[string][]byte
}

// NewMemoryOutput returns an empty in-memory output.
func NewMemoryOutput() *MemoryOutput {
	return &MemoryOutput{files: make(map[string]map[string][]byte)}
}

// Write replaces the files stored for root.
func (m *MemoryOutput) Write(ctx context.Context, _ Language, root string, files []File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckPaths(files); err != nil {
		return err
	}
	set := make(map[string][]byte, len(files))
	for _, f := range files {
		set[f.Path] = slices.Clone(f.Content)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[root] = set
	return nil
}

// Paths returns the sorted paths written to root.
func (m *MemoryOutput) Paths(root string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.files[root]))
}

// File returns the content written to root/path.
func (m *MemoryOutput) File(root, path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[root][path]
	return b, ok
}

// Roots returns the sorted roots written so far.
func (m *MemoryOutput) Roots() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Sorted(maps.Keys(m.files))
}

// DryRunOutput prints generated files instead of writing them. Each file is
// preceded by a banner line naming its path.
type DryRunOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewDryRunOutput returns an output printing to w.
func NewDryRunOutput(w io.Writer) *DryRunOutput {
	return &DryRunOutput{w: w}
}

// Write prints files in path order. Languages are printed whole, never
// interleaved.
func (d *DryRunOutput) Write(ctx context.Context, lang Language, root string, files []File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := CheckPaths(files); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range files {
		if _, err := fmt.Fprintf(d.w, "==> [%s] %s\n%s\n", lang, path.Join(root, f.Path), f.Content); err != nil {
			return NewOutputError("print", f.Path, err)
		}
	}
	return nil
}
