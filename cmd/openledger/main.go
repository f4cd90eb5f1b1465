package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/openledger/generator/internal/config"
	"github.com/openledger/generator/internal/logger"
)

const serviceName = "openledger"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Debug(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := newRootCmd(cfg, logg).Execute(); err != nil {
		logg.Error(context.Background(), "command failed", err)
		os.Exit(1)
	}
}
