package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/scopecheck/internal/checklist"
)

func newCatalogCmd(catalog *checklist.Catalog) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the checklist questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog)
			}

			for _, section := range catalog.Sections() {
				fmt.Fprintln(out, section.Name)
				for _, q := range section.Questions {
					fmt.Fprintf(out, "  %-28s %s\n", q.ID, q.Text)
				}
			}
			fmt.Fprintf(out, "\nmicroscopes: %v\n", catalog.Microscopes())
			fmt.Fprintf(out, "stall reasons: %q\n", catalog.StallReasons())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}
