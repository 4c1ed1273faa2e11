package gen

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/syssam/nexusgen/internal/schematest"
	"github.com/syssam/nexusgen/schema"
	"github.com/syssam/nexusgen/schema/field"
)

// fakeBackend writes one file per top-level type holding its identifier.
func fakeBackend(lang Language, without ...field.Type) Backend {
	table := TypeTable{}
	for _, k := range field.Types() {
		table[k] = TypeMapping{Name: k.String()}
	}
	for _, k := range without {
		delete(table, k)
	}
	return Backend{
		Language:   lang,
		Convention: testConvention,
		Types:      table,
		Render: func(c *Context) ([]File, error) {
			var files []File
			for _, n := range c.Graph.TopLevel() {
				files = append(files, File{
					Path:    c.Names.File(n.Handle),
					Content: []byte(c.Header + c.Target.Package + "." + c.Names.Type(n.Handle)),
				})
			}
			return files, nil
		},
	}
}

type failingOutput struct{}

func (failingOutput) Write(context.Context, Language, string, []File) error {
	return NewOutputError("promote", "x", errors.New("disk full"))
}

func TestGenerate(t *testing.T) {
	out := NewMemoryOutput()
	py := fakeBackend(LangPython)
	py.DefaultPackage = "models"
	g, err := NewGenerator(
		[]Backend{fakeBackend(LangGo), py},
		WithOutput(out),
		WithHeader("// generated\n"),
	)
	require.NoError(t, err)

	res, err := g.Generate(context.Background(), schematest.KitchenSink(), []Target{
		{Language: LangGo, OutDir: "out/go", Package: "api"},
		{Language: LangPython, OutDir: "out/py"},
	})
	require.NoError(t, err)
	require.Len(t, res.Languages, 2)
	require.NotNil(t, res.Graph)

	goRes := res.Languages[0]
	assert.Equal(t, LangGo, goRes.Language)
	assert.Equal(t, "out/go", goRes.Root)
	assert.NoError(t, goRes.Err)
	assert.Contains(t, goRes.Files, "complex_input.x")
	assert.Contains(t, goRes.Files, "status.x")
	assert.IsIncreasing(t, goRes.Files)
	assert.Equal(t, goRes.Files, out.Paths("out/go"))

	b, ok := out.File("out/go", "complex_input.x")
	require.True(t, ok)
	assert.Equal(t, "// generated\napi.ComplexInput", string(b))
	b, ok = out.File("out/py", "shared_object.x")
	require.True(t, ok)
	assert.Equal(t, "// generated\nmodels.SharedObject", string(b), "default package")
}

func TestGenerateLanguageFailure(t *testing.T) {
	out := NewMemoryOutput()
	g, err := NewGenerator([]Backend{fakeBackend(LangGo, field.TypeTime), fakeBackend(LangPython)}, WithOutput(out))
	require.NoError(t, err)

	res, err := g.Generate(context.Background(), schematest.WithTime(), []Target{
		{Language: LangGo, OutDir: "go"},
		{Language: LangPython, OutDir: "py"},
	})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.True(t, IsUnsupportedTypeError(err))

	var lerr *LanguageError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, LangGo, lerr.Language)
	assert.Equal(t, lerr, res.Languages[0].Err)
	assert.Empty(t, res.Languages[0].Files)
	assert.Empty(t, out.Paths("go"), "a failed language writes nothing")

	assert.NoError(t, res.Languages[1].Err)
	assert.NotEmpty(t, out.Paths("py"))
}

func TestGenerateSchemaFailure(t *testing.T) {
	out := NewMemoryOutput()
	g, err := NewGenerator([]Backend{fakeBackend(LangGo)}, WithOutput(out))
	require.NoError(t, err)
	s := &schema.Schema{Types: []*schema.TypeDef{
		record("Order", fieldOf("customer", schema.Ref("Customer"))),
	}}
	res, err := g.Generate(context.Background(), s, []Target{{Language: LangGo, OutDir: "go"}})
	assert.Nil(t, res)
	assert.True(t, IsUnresolvedReferenceError(err))
	assert.Empty(t, out.Roots())
}

func TestGenerateTargets(t *testing.T) {
	g, err := NewGenerator([]Backend{fakeBackend(LangGo)}, WithOutput(NewMemoryOutput()))
	require.NoError(t, err)
	tests := []struct {
		name    string
		targets []Target
	}{
		{"none", nil},
		{"no backend", []Target{{Language: LangJava, OutDir: "java"}}},
		{"no out dir", []Target{{Language: LangGo}}},
		{"invalid language", []Target{{Language: Language(42), OutDir: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.Generate(context.Background(), schematest.KitchenSink(), tt.targets)
			assert.Nil(t, res)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestNewGeneratorErrors(t *testing.T) {
	_, err := NewGenerator([]Backend{{Language: LangGo}})
	assert.True(t, IsConfigError(err))
	_, err = NewGenerator(nil, WithWorkers(0))
	assert.True(t, IsConfigError(err))
}

func TestGenerateOutputError(t *testing.T) {
	g, err := NewGenerator([]Backend{fakeBackend(LangGo)}, WithOutput(failingOutput{}))
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), schematest.KitchenSink(), []Target{{Language: LangGo, OutDir: "go"}})
	assert.True(t, IsOutputError(err))
	assert.ErrorContains(t, err, "disk full")
	var lerr *LanguageError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, LangGo, lerr.Language)
}

func TestGenerateCanceled(t *testing.T) {
	out := NewMemoryOutput()
	g, err := NewGenerator([]Backend{fakeBackend(LangGo)}, WithOutput(out))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Generate(ctx, schematest.KitchenSink(), []Target{{Language: LangGo, OutDir: "go"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.Roots())
}

func TestGenerateTelemetry(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	g, err := NewGenerator(
		[]Backend{fakeBackend(LangGo), fakeBackend(LangPython, field.TypeDateTime)},
		WithOutput(NewMemoryOutput()),
		WithTracerProvider(tp),
		WithMeterProvider(mp),
	)
	require.NoError(t, err)
	res, err := g.Generate(context.Background(), schematest.KitchenSink(), []Target{
		{Language: LangGo, OutDir: "go"},
		{Language: LangPython, OutDir: "py"},
	})
	require.Error(t, err)

	names := map[string]int{}
	for _, s := range spans.Ended() {
		names[s.Name()]++
	}
	assert.Equal(t, map[string]int{
		"nexusgen.generate": 1,
		"nexusgen.resolve":  1,
		"nexusgen.emit":     2,
		"nexusgen.write":    1,
	}, names)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var written int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "nexusgen.files.written" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				written += dp.Value
			}
		}
	}
	assert.Equal(t, int64(len(res.Languages[0].Files)), written)
}
