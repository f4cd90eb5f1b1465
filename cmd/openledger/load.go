package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openledger/generator/internal/config"
	"github.com/openledger/generator/internal/ingestion"
	"github.com/openledger/generator/internal/logger"
	"github.com/openledger/generator/internal/repository"
)

func newLoadCmd(cfg *config.Config, log *logger.Logger) *cobra.Command {
	in := cfg.Generator.OutputDir
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load generated CSV files into the SQLite warehouse",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := repository.InitDB(cfg.Warehouse.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			results, err := ingestion.NewService(db, nil, log).LoadDir(cmd.Context(), in)
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s loaded=%d rejected=%d\n", r.Table, r.Loaded, r.Rejected)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&in, "in", in, "directory holding the generated files")
	f.StringVar(&cfg.Warehouse.DBPath, "db", cfg.Warehouse.DBPath, "SQLite database path")
	return cmd
}
