package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hookahplace/stock-app/internal/app/exporter"
	"github.com/hookahplace/stock-app/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting exporter", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := exporter.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize exporter", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("exporter stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("exporter stopped gracefully")
}
