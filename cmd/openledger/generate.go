package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openledger/generator/internal/config"
	"github.com/openledger/generator/internal/export"
	"github.com/openledger/generator/internal/generator"
	"github.com/openledger/generator/internal/logger"
)

func newGenerateCmd(cfg *config.Config, log *logger.Logger) *cobra.Command {
	gc := &cfg.Generator
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the dataset and write it as CSV files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := log.WithRunID(cmd.Context(), uuid.NewString())

			params, err := cfg.Params()
			if err != nil {
				return err
			}
			gen, err := generator.New(params, log)
			if err != nil {
				return err
			}
			ds, err := gen.Run(ctx)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			manifest, err := export.WriteDataset(gc.OutputDir, ds)
			if err != nil {
				return err
			}
			for _, f := range manifest {
				log.Info(log.WithFields(ctx, map[string]any{"file": f.Name, "rows": f.Rows}), "file written")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d files to %s\n", len(manifest), gc.OutputDir)
			return nil
		},
	}

	// Flag defaults are the resolved config values, so unset flags keep
	// whatever the environment provided.
	f := cmd.Flags()
	f.Int64Var(&gc.Seed, "seed", gc.Seed, "random seed")
	f.IntVar(&gc.Users, "users", gc.Users, "number of users")
	f.IntVar(&gc.Merchants, "merchants", gc.Merchants, "number of merchants")
	f.StringVar(&gc.StartDate, "start", gc.StartDate, "first simulated day (YYYY-MM-DD)")
	f.IntVar(&gc.Days, "days", gc.Days, "number of simulated days")
	f.IntVar(&gc.Workers, "workers", gc.Workers, "days generated concurrently")
	f.StringVar(&gc.OutputDir, "out", gc.OutputDir, "output directory")
	return cmd
}
