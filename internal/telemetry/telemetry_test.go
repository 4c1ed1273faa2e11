package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/nexusgen/compiler"
	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/internal/schematest"
)

func TestSetup(t *testing.T) {
	var buf bytes.Buffer
	p, err := Setup(&buf, "v0.0.0-test")
	require.NoError(t, err)

	opts := append(p.Options(), gen.WithOutput(gen.NewMemoryOutput()))
	_, err = compiler.Generate(context.Background(), schematest.KitchenSink(), []gen.Target{
		{Language: gen.LangGo, OutDir: "go"},
		{Language: gen.LangPython, OutDir: "py"},
	}, opts...)
	require.NoError(t, err)
	require.NoError(t, p.Shutdown(context.Background()))

	out := buf.String()
	for _, name := range []string{"nexusgen.generate", "nexusgen.resolve", "nexusgen.emit", "nexusgen.write", "nexusgen.files.written"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "v0.0.0-test")
}
