// Command scopecheck works with microscope evaluation checklists from the
// terminal: print the catalog, check and export YAML form files, submit
// them to the database, and browse recent experiments.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
