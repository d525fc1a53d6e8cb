package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"oftalmo/internal/server/app"
	"oftalmo/internal/server/config"
	"oftalmo/internal/shared/logger"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Env: cfg.Env})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	application, err := app.New(cfg, version, buildDate, log)
	if err != nil {
		log.Fatal("failed to init server", zap.Error(err))
	}
	if err := application.Run(); err != nil {
		log.Fatal("server stopped with error", zap.Error(err))
	}
}
