package main

import (
	"github.com/spf13/cobra"

	"github.com/JaimeStill/scopecheck/internal/checklist"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "scopecheck",
		Short:        "Decoding microscope evaluation checklist",
		SilenceUsage: true,
	}

	catalog := checklist.DefaultCatalog()

	root.AddCommand(
		newCatalogCmd(catalog),
		newValidateCmd(catalog),
		newExportCmd(catalog),
		newSubmitCmd(catalog),
		newExperimentsCmd(),
	)
	return root
}
