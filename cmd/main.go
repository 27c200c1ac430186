package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bank/config"
	"bank/internal/core"
	"bank/internal/http"
	"bank/internal/sqlite"
)

func main() {
	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.Level(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.InfoContext(ctx, "Starting application")

	rates, err := cfg.Interest.Rates()
	if err != nil {
		slog.ErrorContext(ctx, "invalid interest configuration", "error", err)
		os.Exit(1)
	}

	dbClient, err := sqlite.NewClient(cfg.Database)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create db client", "error", err)
		os.Exit(1)
	}

	if err = dbClient.EnsureSchema(); err != nil {
		slog.ErrorContext(ctx, "failed to prepare schema", "error", err)
		os.Exit(1)
	}

	registry := sqlite.NewRegistryStore(dbClient.DB())
	ledger := core.NewService(registry)
	interest := core.NewInterestEngine(registry, ledger, rates, logger)
	httpServer := http.NewServer(ledger, interest, logger, cfg.HTTP)

	if err = httpServer.Start(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to start http server", "error", err)
		os.Exit(1)
	}

	<-stop

	logger.InfoContext(ctx, "Shutting down...")

	if err = httpServer.Stop(ctx); err != nil {
		logger.ErrorContext(ctx, "Error stopping HTTP server", "error", err)
	}

	if err = dbClient.Close(); err != nil {
		logger.ErrorContext(ctx, "Error closing database", "error", err)
	}

	logger.InfoContext(ctx, "Application shutdown complete")
}
