package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/nexusgen/compiler"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a service definition without generating code",
		Long: `Load and resolve a service definition.

Every problem found is printed, one per line. Language specific checks,
such as kinds a language cannot represent, run only on generate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := compiler.Validate(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d types, %d services\n", args[0], len(g.Nodes), len(g.Services))
			return nil
		},
	}
}
