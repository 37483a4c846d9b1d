package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"keranjang/internal/app"
	"keranjang/internal/config"
	"keranjang/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg.Env)
	slog.SetDefault(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to initialise application", logger.Err(err))
		os.Exit(1)
	}

	if err := application.Run(ctx); err != nil {
		appLogger.Error("server stopped with error", logger.Err(err))
		os.Exit(1)
	}
}
