package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"docval/internal/app"
	"docval/internal/platform/config"
	"docval/internal/platform/logger"
	"docval/internal/platform/metrics"
)

// main loads configuration, wires the service and serves HTTP until
// SIGINT/SIGTERM.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		logger.New("INFO", "json").Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, metrics.NewRegistry())
	if err != nil {
		log.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Serve(ctx); err != nil {
		log.Error("server error", "error", err)
		a.Close()
		os.Exit(1)
	}
}
