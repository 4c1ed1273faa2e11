// Command nexusgen generates Go, Java, Python and TypeScript sources from
// a Nexus RPC service definition.
package main

import (
	"os"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		printErrors(root.ErrOrStderr(), err)
		os.Exit(1)
	}
}
