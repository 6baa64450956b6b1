package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"docval/internal/app"
	"docval/internal/platform/config"
	"docval/internal/platform/logger"
	"docval/internal/platform/metrics"
	"docval/internal/validation"
)

// Validator runs one validation.
type Validator interface {
	Validate(ctx context.Context, sub validation.Submission) (*validation.Record, error)
}

// builder wires a Validator for the validate command.
type builder func(ctx context.Context, cfg config.Config, log *slog.Logger) (Validator, func(), error)

func defaultBuilder(ctx context.Context, cfg config.Config, log *slog.Logger) (Validator, func(), error) {
	a, err := app.New(ctx, cfg, log, prometheus.NewRegistry())
	if err != nil {
		return nil, nil, err
	}
	return a.Service, a.Close, nil
}

func newRootCmd(build builder) *cobra.Command {
	root := &cobra.Command{
		Use:           "docval",
		Short:         "Cross-check supplier registration documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newValidateCmd(build), newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Format)
			a, err := app.New(cmd.Context(), cfg, log, metrics.NewRegistry())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
}
