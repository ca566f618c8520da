package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/scopecheck/internal/checklist"
	"github.com/JaimeStill/scopecheck/internal/config"
	"github.com/JaimeStill/scopecheck/internal/evaluations"
	"github.com/JaimeStill/scopecheck/internal/infrastructure"
)

func newSubmitCmd(catalog *checklist.Catalog) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "submit <form.yaml>",
		Short: "Store a form file as an evaluation using the configured database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := readSession(cmd, catalog, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := s.Validate(); err != nil {
				printReport(out, s.Report())
				return errNotReady
			}

			cfg, err := config.LoadFile(configFile)
			if err != nil {
				return err
			}

			infra, err := infrastructure.New(cfg)
			if err != nil {
				return err
			}
			defer infra.Database.Connection().Close()

			ctx := cmd.Context()
			if err := infra.Database.Ping(ctx); err != nil {
				return err
			}

			sys := evaluations.New(
				infra.Database.Connection(),
				infra.Storage,
				catalog,
				infra.Logger,
				infra.Metrics,
				cfg.API.Pagination,
			)

			receipt, err := sys.Submit(ctx, s)
			if err != nil {
				if errors.Is(err, checklist.ErrPersistence) {
					return fmt.Errorf("nothing was stored: %w", err)
				}
				return err
			}

			fmt.Fprintf(out, "evaluation %s stored for experiments %v\n", receipt.RecordID, receipt.ExperimentIDs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", config.BaseConfigFile, "base config file")
	return cmd
}
