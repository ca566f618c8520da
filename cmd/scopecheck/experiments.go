package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/scopecheck/internal/config"
	"github.com/JaimeStill/scopecheck/internal/lookup"
)

func newExperimentsCmd() *cobra.Command {
	var (
		configFile string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "experiments [experiment-id...]",
		Short: "Show chips and libraries for experiments, recent ones by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("%w: %q", lookup.ErrInvalidID, arg)
				}
				ids = append(ids, id)
			}

			cfg, err := config.LoadFile(configFile)
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			sys, err := lookup.New(&cfg.Lookup, nil, logger, nil)
			if err != nil {
				return err
			}
			return printExperiments(cmd, sys, ids, limit)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", config.BaseConfigFile, "base config file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of recent experiments to show")
	return cmd
}

func printExperiments(cmd *cobra.Command, sys lookup.System, ids []int, limit int) error {
	ctx := cmd.Context()

	if len(ids) == 0 {
		recent, err := sys.RecentExperiments(ctx)
		if err != nil {
			return err
		}
		ids = recent[:max(0, min(limit, len(recent)))]
	}

	exps, err := sys.Discover(ctx, ids)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPERIMENT\tCHIP\tLIBRARY")
	for _, exp := range exps {
		if len(exp.Chips) == 0 {
			fmt.Fprintf(tw, "%d\t-\t-\n", exp.ID)
			continue
		}
		for _, chip := range exp.Chips {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", exp.ID, chip.Name, chip.Library)
		}
	}
	return tw.Flush()
}
