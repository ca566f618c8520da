package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/scopecheck/internal/checklist"
)

var errNotReady = errors.New("form is not ready to submit")

// readSession decodes a YAML form from path ("-" reads stdin) and replays
// it into a session.
func readSession(cmd *cobra.Command, catalog *checklist.Catalog, path string) (*checklist.Session, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open form: %w", err)
		}
		defer f.Close()
		r = f
	}

	var form checklist.Form
	if err := yaml.NewDecoder(r).Decode(&form); err != nil {
		return nil, fmt.Errorf("parse form %s: %w", path, err)
	}

	return form.Session(catalog)
}

func printReport(w io.Writer, report checklist.Report) {
	fmt.Fprintf(w, "experiments: %v\n", report.ExperimentIDs)
	for _, issue := range report.Issues {
		fmt.Fprintf(w, "  warning: %s\n", issue)
	}
	for _, b := range report.Blocking {
		fmt.Fprintf(w, "  blocking: %s\n", b)
	}
	if report.Ready {
		fmt.Fprintln(w, "ready to submit")
	}
}

func newValidateCmd(catalog *checklist.Catalog) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <form.yaml>",
		Short: "Report advisory and blocking issues in a form file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readSession(cmd, catalog, args[0])
			if err != nil {
				return err
			}

			answered := 0
			for _, a := range s.Responses() {
				if a != checklist.Unanswered {
					answered++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "answered: %d of %d\n", answered, catalog.Len())

			report := s.Report()
			printReport(cmd.OutOrStdout(), report)
			if !report.Ready {
				return errNotReady
			}
			return nil
		},
	}
}

func newExportCmd(catalog *checklist.Catalog) *cobra.Command {
	return &cobra.Command{
		Use:   "export <form.yaml>",
		Short: "Write a form file as key,value CSV to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readSession(cmd, catalog, args[0])
			if err != nil {
				return err
			}
			return s.Export(cmd.OutOrStdout())
		},
	}
}
