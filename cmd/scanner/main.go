package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/goalstash/goalstash/internal/app"
	"github.com/goalstash/goalstash/internal/config"
	"github.com/goalstash/goalstash/internal/logger"
)

// Batch entry point for the daily notification scan. Safe to re-run: every
// event dedups at the storage layer.
func main() {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	app, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer func() {
		closeErr := app.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	events, err := app.ScannerService.ScanAll(context.Background())
	if err != nil {
		slog.Error("scan failed", "error", err)
		os.Exit(1)
	}

	slog.Info("scan complete", "notifications", len(events))
}
