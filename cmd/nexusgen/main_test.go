package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/nexusgen/compiler/gen"
)

var kitchenSink = filepath.Join("..", "..", "compiler", "load", "testdata", "kitchen_sink.yaml")

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestGenerate(t *testing.T) {
	out := t.TempDir()
	_, _, err := execute(t, "generate", "-l", "go,ts", "-l", "python", "-o", out, "--package", "go=orders", kitchenSink)
	require.NoError(t, err)
	for _, p := range []string{
		filepath.Join("go", "complex_input.go"),
		filepath.Join("python", "complex_input.py"),
		filepath.Join("python", "__init__.py"),
		filepath.Join("typescript", "complex-input.ts"),
		filepath.Join("typescript", "index.ts"),
	} {
		assert.FileExists(t, filepath.Join(out, p))
	}
	src, err := os.ReadFile(filepath.Join(out, "go", "status.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package orders")
	assert.NoDirExists(t, filepath.Join(out, "java"))
}

func TestGenerateSingleLanguage(t *testing.T) {
	out := t.TempDir()
	java := filepath.Join(out, "src")
	_, _, err := execute(t, "generate", "--out", "java="+java, "--runtime", "none", kitchenSink)
	require.NoError(t, err)
	src, err := os.ReadFile(filepath.Join(java, "com", "example", "nexusservices", "KitchenSinkService.java"))
	require.NoError(t, err)
	assert.NotContains(t, string(src), "@Operation")
}

func TestGenerateDryRun(t *testing.T) {
	out := t.TempDir()
	stdout, _, err := execute(t, "generate", "-l", "go", "-o", out, "--dry-run", kitchenSink)
	require.NoError(t, err)
	assert.Contains(t, stdout, "==> [go] "+filepath.ToSlash(filepath.Join(out, "complex_input.go")))
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateConfigFile(t *testing.T) {
	dir := t.TempDir()
	def, err := os.ReadFile(kitchenSink)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "service.yaml"), def, 0o644))
	cfgFile := filepath.Join(dir, "nexusgen.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
schema: service.yaml
out_dir: build
languages:
  go:
    types:
      time: civil.Time@cloud.google.com/go/civil
`), 0o644))

	_, _, err = execute(t, "generate", "-c", cfgFile)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "build", "kitchen_sink_service.go"))
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(error) bool
	}{
		{"no language", []string{"generate", "-o", "x", kitchenSink}, gen.IsConfigError},
		{"unknown language", []string{"generate", "-l", "rust", kitchenSink}, gen.IsConfigError},
		{"unselected out", []string{"generate", "-l", "go", "--out", "java=x", kitchenSink}, gen.IsConfigError},
		{"bad type", []string{"generate", "-l", "go", "--type", "go:uuid=uuid.UUID", kitchenSink}, gen.IsConfigError},
		{"bad runtime", []string{"generate", "-l", "go", "--runtime", "grpc", kitchenSink}, gen.IsConfigError},
		{"missing file", []string{"generate", "-l", "go", "-o", "x", "missing.yaml"}, func(err error) bool { return errors.Is(err, os.ErrNotExist) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.True(t, tt.check(err), err)
		})
	}
}

func TestPrintErrors(t *testing.T) {
	var list gen.ErrorList
	list.Add(gen.NewSchemaValidationError("User.address", "unknown type", nil))
	list.Add(&gen.LanguageError{Language: gen.LangGo, Err: gen.ErrorList{
		gen.NewConfigError("Package", "1x", "invalid package"),
		gen.NewInternalError("broken %s", "invariant"),
	}})
	var buf bytes.Buffer
	printErrors(&buf, list)
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Equal(t, "error: schema error at User.address: unknown type", string(lines[0]))
	assert.Contains(t, string(lines[1]), "error: [go] ")
	assert.Contains(t, string(lines[2]), "broken invariant")
}

func TestValidate(t *testing.T) {
	stdout, _, err := execute(t, "validate", kitchenSink)
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid")

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte(`nexusrpc: 1.0.0
types:
  A:
    type: object
    properties:
      b:
        $ref: '#/types/B'
`), 0o644))
	_, _, err = execute(t, "validate", bad)
	require.Error(t, err)
	assert.True(t, gen.IsUnresolvedReferenceError(err))
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "nexusgen dev\n")
}
