package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/schema/field"
)

func writeAndLoad(t *testing.T, content string) (*Config, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	return cfg, dir
}

func TestLoad(t *testing.T) {
	cfg, dir := writeAndLoad(t, `
schema: api/service.yaml
out_dir: gen
runtime: none
max_identifier_length: 40
languages:
  go:
    package: orders
    primitive_pointers: true
    types:
      time: civil.Time@cloud.google.com/go/civil
  ts:
    out: web/gen
    runtime: nexus
logging:
  level: debug
`)
	assert.Equal(t, filepath.Join(dir, "api", "service.yaml"), cfg.Schema)
	assert.Equal(t, filepath.Join(dir, "gen"), cfg.OutDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Len(t, cfg.Options(), 1)

	targets, err := cfg.Targets()
	require.NoError(t, err)
	require.Len(t, targets, 2)

	goT := targets[0]
	assert.Equal(t, gen.LangGo, goT.Language)
	assert.Equal(t, filepath.Join(dir, "gen", "go"), goT.OutDir)
	assert.Equal(t, "orders", goT.Package)
	assert.Equal(t, gen.RuntimeNone, goT.Runtime)
	assert.True(t, goT.PrimitivePointers)
	assert.Equal(t, gen.TypeMapping{Name: "civil.Time", Import: "cloud.google.com/go/civil"}, goT.TypeOverrides[field.TypeTime])

	tsT := targets[1]
	assert.Equal(t, gen.LangTypeScript, tsT.Language)
	assert.Equal(t, filepath.Join(dir, "web", "gen"), tsT.OutDir)
	assert.Equal(t, gen.RuntimeNexus, tsT.Runtime)
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte("languages:\n  python: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, "gen", cfg.OutDir)
	assert.Equal(t, "nexus", cfg.Runtime)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Options())

	targets, err := cfg.Targets()
	require.NoError(t, err)
	require.Len(t, targets, 1)
	assert.Equal(t, "gen", targets[0].OutDir)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NEXUSGEN_OUT_DIR", "out")
	t.Setenv("NEXUSGEN_LOG_LEVEL", "warn")
	t.Setenv("NEXUSGEN_WORKERS", "3")
	cfg, err := Parse([]byte("out_dir: gen\n"))
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.OutDir)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		option  string
	}{
		{"runtime", "runtime: grpc\n", "runtime"},
		{"language", "languages:\n  rust: {}\n", "languages[rust]"},
		{"language runtime", "languages:\n  go:\n    runtime: grpc\n", "languages[go].runtime"},
		{"workers", "workers: -1\n", "workers"},
		{"log level", "logging:\n  level: loud\n", "logging.level"},
		{"type kind", "languages:\n  go:\n    types:\n      uuid: uuid.UUID\n", "TypeOverride"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			errs := gen.Flatten(err)
			require.Len(t, errs, 1)
			var cerr *gen.ConfigError
			require.ErrorAs(t, errs[0], &cerr)
			assert.Equal(t, tt.option, cerr.Option)
		})
	}
}

func TestTargetsDuplicate(t *testing.T) {
	cfg, err := Parse([]byte("languages:\n  go: {}\n  golang: {}\n"))
	require.NoError(t, err)
	_, err = cfg.Targets()
	require.Error(t, err)
	assert.True(t, gen.IsConfigError(err))
}

func TestLoadOptional(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadOptional("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadOptional("missing.yaml")
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(DefaultFile, []byte("out_dir: build\n"), 0o644))
	cfg, err = LoadOptional("")
	require.NoError(t, err)
	assert.Equal(t, "build", filepath.Base(cfg.OutDir))
}

func TestSetLanguage(t *testing.T) {
	cfg, err := Parse([]byte("languages:\n  ts:\n    package: web\n"))
	require.NoError(t, err)
	lc, ok := cfg.Language(gen.LangTypeScript)
	require.True(t, ok)
	assert.Equal(t, "web", lc.Package)
	_, ok = cfg.Language(gen.LangGo)
	assert.False(t, ok)

	lc.Out = "web/gen"
	cfg.SetLanguage(gen.LangTypeScript, lc)
	assert.Equal(t, map[string]LanguageConfig{"typescript": {Package: "web", Out: "web/gen"}}, cfg.Languages)
}
