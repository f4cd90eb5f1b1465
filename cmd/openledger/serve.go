package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/openledger/generator/internal/api"
	"github.com/openledger/generator/internal/config"
	"github.com/openledger/generator/internal/ingestion"
	"github.com/openledger/generator/internal/logger"
	"github.com/openledger/generator/internal/metrics"
	"github.com/openledger/generator/internal/repository"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfg *config.Config, log *logger.Logger) *cobra.Command {
	var loadDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the loaded warehouse over a read-only HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := repository.InitDB(cfg.Warehouse.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			reg := prometheus.NewRegistry()
			loaderMetrics := metrics.NewLoaderMetrics(reg)

			// Seed an empty warehouse from --load when given.
			if loadDir != "" {
				count, err := repository.CountRows(ctx, db, repository.TableTransactions)
				if err != nil {
					return err
				}
				if count == 0 {
					if _, err := ingestion.NewService(db, loaderMetrics, log).LoadDir(ctx, loadDir); err != nil {
						log.Error(ctx, "initial load incomplete", err)
					}
				} else {
					log.Info(log.WithField(ctx, "transactions", count), "warehouse already loaded, skipping")
				}
			}

			srv := &http.Server{
				Addr:              ":" + cfg.Server.Port,
				Handler:           api.NewRouter(db, reg, log),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info(log.WithField(ctx, "addr", srv.Addr), "listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			log.Info(shutdownCtx, "shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.Warehouse.DBPath, "db", cfg.Warehouse.DBPath, "SQLite database path")
	f.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "listen port")
	f.StringVar(&loadDir, "load", "", "load this directory first when the warehouse is empty")
	return cmd
}
