package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/syssam/nexusgen/compiler/gen"
)

// newRootCmd returns the nexusgen command with every subcommand.
func newRootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:   "nexusgen",
		Short: "Generate Nexus RPC service contracts and types",
		Long: `nexusgen reads a Nexus RPC service definition and generates
the types and service contracts for Go, Java, Python and TypeScript.

Quick start:
  nexusgen generate -l go,ts -o gen service.yaml
  nexusgen validate service.yaml`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "project file (default nexusgen.yaml if present)")
	root.AddCommand(
		newGenerateCmd(&cfgFile),
		newValidateCmd(),
		newVersionCmd(),
	)
	return root
}

// printErrors prints every error on its own line.
func printErrors(w io.Writer, err error) {
	for _, e := range gen.Flatten(err) {
		fmt.Fprintf(w, "error: %s\n", strings.TrimPrefix(e.Error(), "nexusgen: "))
	}
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), gen.NewConfigError("log-level", level, "use trace, debug, info, warn or error")
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(lvl).
		With().
		Timestamp().
		Logger(), nil
}
