// testgen generates the kitchen-sink schema in every language for manual
// inspection.
// Run: go run ./compiler/gen/cmd/testgen [out-dir]
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/syssam/nexusgen/compiler"
	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/internal/schematest"
)

func main() {
	outDir := ""
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	} else {
		dir, err := os.MkdirTemp("", "nexusgen-testgen-*")
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
			os.Exit(1)
		}
		outDir = dir
	}
	fmt.Printf("Output directory: %s\n", outDir)

	var targets []gen.Target
	for _, lang := range gen.Languages() {
		targets = append(targets, gen.Target{
			Language: lang,
			OutDir:   filepath.Join(outDir, lang.String()),
		})
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	res, err := compiler.Generate(context.Background(), schematest.KitchenSink(), targets, gen.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		if res == nil {
			os.Exit(1)
		}
	}

	fmt.Println("\nGenerated files:")
	for _, lr := range res.Languages {
		if lr.Err != nil {
			fmt.Printf("  [%s] failed\n", lr.Language)
			continue
		}
		for _, p := range lr.Files {
			info, err := os.Stat(filepath.Join(lr.Root, filepath.FromSlash(p)))
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to stat %s: %v\n", p, err)
				continue
			}
			fmt.Printf("  [%s] %s (%d bytes)\n", lr.Language, p, info.Size())
		}
	}
	fmt.Printf("\nTo inspect generated code: ls -R %s\n", outDir)
}
