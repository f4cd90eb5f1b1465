package main

import (
	"github.com/spf13/cobra"

	"github.com/openledger/generator/internal/config"
	"github.com/openledger/generator/internal/logger"
)

func newRootCmd(cfg *config.Config, log *logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   serviceName,
		Short: "Synthetic payments dataset generator",
		Long: `openledger generates a reproducible synthetic payments dataset: users,
merchants, transactions, double-entry ledger postings and processor
settlements, with controlled defects for reconciliation work.

Settings come from OPENLEDGER_* environment variables (and an optional .env
file); flags given on the command line take precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGenerateCmd(cfg, log))
	root.AddCommand(newLoadCmd(cfg, log))
	root.AddCommand(newServeCmd(cfg, log))
	return root
}
