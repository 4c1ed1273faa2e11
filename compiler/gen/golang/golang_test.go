package golang_test

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/compiler/gen/golang"
	"github.com/syssam/nexusgen/internal/schematest"
	"github.com/syssam/nexusgen/schema"
	"github.com/syssam/nexusgen/schema/field"
)

func emit(t *testing.T, s *schema.Schema, target gen.Target) map[string]string {
	t.Helper()
	g, err := gen.NewGraph(s)
	require.NoError(t, err)
	cfg, err := gen.NewConfig()
	require.NoError(t, err)
	target.Language = gen.LangGo
	files, err := golang.Backend().Emit(g, target, cfg)
	require.NoError(t, err)
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Path] = string(f.Content)
	}
	return out
}

func TestFiles(t *testing.T) {
	files := emit(t, schematest.KitchenSink(), gen.Target{})
	paths := make([]string, 0, len(files))
	for p, content := range files {
		paths = append(paths, p)
		assert.True(t, strings.HasPrefix(content, "// "+gen.DefaultHeader), p)
		assert.Contains(t, content, "package services\n", p)
	}
	assert.ElementsMatch(t, []string{
		"complex_input.go",
		"email.go",
		"instant.go",
		"kitchen_sink_service.go",
		"kitchen_sink_service_inline_arg_enum_result_input.go",
		"shared_object.go",
		"status.go",
	}, paths)
}

func TestRecord(t *testing.T) {
	src := emit(t, schematest.KitchenSink(), gen.Target{})["complex_input.go"]
	for _, want := range []string{
		"// ComplexInput carries every field shape.\ntype ComplexInput struct {",
		"SelfRef       *ComplexInput     `json:\"selfRef,omitempty\"`",
		"SomeSharedObj *SharedObject     `json:\"someSharedObj,omitempty\"`",
		"Status        Status            `json:\"status\"`",
		"Tags          []string          `json:\"tags\"`",
		"Counts        map[string]int64  `json:\"counts,omitempty\"`",
		"CreatedAt     *time.Time        `json:\"createdAt,omitempty\"`",
		"Contact       Email             `json:\"contact,omitempty\"`",
		"// Order lines.",
		"Lines         []ComplexInputLine `json:\"lines,omitempty\"`",
		"type ComplexInputLine struct {",
		"Price float64 `json:\"price,omitempty\"`",
		"import \"time\"",
	} {
		assert.Contains(t, normalize(src), normalize(want))
	}
}

// normalize collapses runs of blanks so assertions do not depend on the
// column alignment gofmt picks.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.Join(lines, "\n")
}

func TestEnumAndAlias(t *testing.T) {
	files := emit(t, schematest.KitchenSink(), gen.Target{})
	status := normalize(files["status.go"])
	assert.Contains(t, status, "type Status string")
	assert.Contains(t, status, `StatusActive Status = "active"`)
	assert.Contains(t, status, "// No longer processed.\nStatusInactive Status = \"inactive\"")
	assert.Contains(t, status, `StatusOnHold Status = "on-hold"`)
	assert.Contains(t, normalize(files["email.go"]), "type Email string")
	assert.Contains(t, normalize(files["instant.go"]), "type Instant = time.Time")
}

func TestService(t *testing.T) {
	t.Run("Nexus", func(t *testing.T) {
		src := normalize(emit(t, schematest.KitchenSink(), gen.Target{})["kitchen_sink_service.go"])
		for _, want := range []string{
			`import (`,
			`"github.com/nexus-rpc/sdk-go/nexus"`,
			"type KitchenSinkServiceHandler interface {",
			"// Returns the length of the input.\nScalarArgScalarResult(ctx context.Context, input string) (int64, error)",
			"ComplexArgComplexResult(ctx context.Context, input ComplexInput) (ComplexInput, error)",
			"InlineArgEnumResult(ctx context.Context, input KitchenSinkServiceInlineArgEnumResultInput) (Status, error)",
			"ExistingArg(ctx context.Context, input time.Duration) ([]SharedObject, error)",
			"NoValue(ctx context.Context) error",
			"var KitchenSinkService = struct {",
			"ServiceName string",
			"ScalarArgScalarResult nexus.OperationReference[string, int64]",
			"NoValue nexus.OperationReference[nexus.NoValue, nexus.NoValue]",
			`ServiceName: "KitchenSinkService",`,
			`ScalarArgScalarResult: nexus.NewOperationReference[string, int64]("scalarArgScalarResult"),`,
			`NoValue: nexus.NewOperationReference[nexus.NoValue, nexus.NoValue]("noValue"),`,
		} {
			assert.Contains(t, src, normalize(want))
		}
	})
	t.Run("None", func(t *testing.T) {
		src := normalize(emit(t, schematest.KitchenSink(), gen.Target{Runtime: gen.RuntimeNone})["kitchen_sink_service.go"])
		assert.NotContains(t, src, "nexus-rpc")
		assert.Contains(t, src, "ScalarArgScalarResult string")
		assert.Contains(t, src, `ScalarArgScalarResult: "scalarArgScalarResult",`)
	})
}

func TestOptions(t *testing.T) {
	files := emit(t, schematest.KitchenSink(), gen.Target{Package: "orders", PrimitivePointers: true})
	src := normalize(files["shared_object.go"])
	assert.Contains(t, src, "package orders")
	assert.Contains(t, src, "Enabled *bool `json:\"enabled,omitempty\"`")
	assert.Contains(t, src, "Name string `json:\"name\"`")
	assert.Contains(t, normalize(files["complex_input.go"]), "Price *float64 `json:\"price,omitempty\"`")
	assert.Contains(t, normalize(files["kitchen_sink_service_inline_arg_enum_result_input.go"]), "Limit *int32 `json:\"limit,omitempty\"`")
}

func TestTimeOverride(t *testing.T) {
	s := schematest.WithTime()
	g, err := gen.NewGraph(s)
	require.NoError(t, err)
	cfg := gen.MustNewConfig()

	_, err = golang.Backend().Emit(g, gen.Target{Language: gen.LangGo}, cfg)
	require.Error(t, err)
	assert.True(t, gen.IsUnsupportedTypeError(err))

	files, err := golang.Backend().Emit(g, gen.Target{
		Language: gen.LangGo,
		TypeOverrides: map[field.Type]gen.TypeMapping{
			field.TypeTime: {Name: "civil.Time", Import: "cloud.google.com/go/civil"},
		},
	}, cfg)
	require.NoError(t, err)
	for _, f := range files {
		if f.Path == "shared_object.go" {
			assert.Contains(t, string(f.Content), `"cloud.google.com/go/civil"`)
			assert.Contains(t, normalize(string(f.Content)), "OpensAt civil.Time `json:\"opensAt,omitempty\"`")
		}
	}
}

func TestFileNameGuard(t *testing.T) {
	s := &schema.Schema{Types: []*schema.TypeDef{
		{Name: "LoadTest", Kind: schema.KindAlias, Type: field.TypeString},
		{Name: "ServerLinux", Kind: schema.KindAlias, Type: field.TypeString},
		{Name: "Arm64Spec", Kind: schema.KindAlias, Type: field.TypeString},
	}}
	files := emit(t, s, gen.Target{})
	assert.Contains(t, files, "load_test_gen.go")
	assert.Contains(t, files, "server_linux_gen.go")
	assert.Contains(t, files, "arm64_spec.go")
}

func TestDeterministic(t *testing.T) {
	first := emit(t, schematest.KitchenSink(), gen.Target{})
	for range 3 {
		assert.Equal(t, first, emit(t, schematest.KitchenSink(), gen.Target{}))
	}
}

const handler = `package services

import (
	"context"
	"time"
)

type handler struct{}

func (handler) ScalarArgScalarResult(_ context.Context, input string) (int64, error) {
	return int64(len(input)), nil
}

func (handler) ComplexArgComplexResult(_ context.Context, input ComplexInput) (ComplexInput, error) {
	return ComplexInput{SelfRef: &input, Status: StatusActive}, nil
}

func (handler) InlineArgEnumResult(_ context.Context, input KitchenSinkServiceInlineArgEnumResultInput) (Status, error) {
	if input.Limit == 0 {
		return StatusOnHold, nil
	}
	return StatusInactive, nil
}

func (handler) ExistingArg(_ context.Context, input time.Duration) ([]SharedObject, error) {
	return []SharedObject{{Name: input.String()}}, nil
}

func (handler) NoValue(context.Context) error { return nil }

var _ KitchenSinkServiceHandler = handler{}

var _ string = KitchenSinkService.ScalarArgScalarResult
`

func TestTypeCheck(t *testing.T) {
	files := emit(t, schematest.KitchenSink(), gen.Target{Runtime: gen.RuntimeNone})
	fset := token.NewFileSet()
	var parsed []*ast.File
	for path, src := range files {
		f, err := parser.ParseFile(fset, path, src, parser.ParseComments)
		require.NoError(t, err, path)
		parsed = append(parsed, f)
	}
	f, err := parser.ParseFile(fset, "handler.go", handler, 0)
	require.NoError(t, err)
	parsed = append(parsed, f)
	conf := types.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	_, err = conf.Check("services", fset, parsed, nil)
	require.NoError(t, err)
}

const program = `package main

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"example.com/e2e/services"
)

type handler struct{}

func (handler) ScalarArgScalarResult(_ context.Context, input string) (int64, error) {
	return int64(len(input)), nil
}

func main() {
	n, err := handler{}.ScalarArgScalarResult(context.Background(), "hello world")
	if err != nil {
		panic(err)
	}
	fmt.Println(n)

	chain := services.ComplexInput{
		Status: services.StatusOnHold,
		Tags:   []string{"a"},
		SelfRef: &services.ComplexInput{
			Status:  services.StatusActive,
			Tags:    []string{},
			SelfRef: &services.ComplexInput{Status: services.StatusInactive, Tags: []string{}},
		},
		Lines: []services.ComplexInputLine{{Sku: "x", Qty: 2}},
	}
	b, err := json.Marshal(chain)
	if err != nil {
		panic(err)
	}
	var back services.ComplexInput
	if err := json.Unmarshal(b, &back); err != nil {
		panic(err)
	}
	fmt.Println(reflect.DeepEqual(chain, back))
}
`

func TestRun(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping go run in short mode")
	}
	goTool, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not found")
	}
	dir := t.TempDir()
	write := func(path, content string) {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	write("go.mod", "module example.com/e2e\n\ngo 1.24\n")
	write("main.go", program)
	for path, content := range emit(t, schematest.KitchenSink(), gen.Target{Runtime: gen.RuntimeNone}) {
		write(filepath.Join("services", path), content)
	}
	cmd := exec.Command(goTool, "run", ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOFLAGS=-mod=mod", "GOWORK=off")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	assert.Equal(t, "11\ntrue\n", string(out))
}
