package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"expensetracker/internal/amqp"
	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets/google"
	"expensetracker/internal/worker"
)

func newWorkerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Mirror the expense table into a Google Sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateWorker(); err != nil {
				return err
			}

			logger := SetupLogger(cfg, applog.ComponentWorker)
			ctx, cancel := SignalContext(cmd.Context(), logger)
			defer cancel()

			return runWorker(ctx, cfg, logger)
		},
	}
}

func runWorker(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	logger.Info("Starting sync worker", "backend", cfg.DataBackend, "interval", cfg.SyncInterval)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	repo, err := backend.OpenRepository(ctx, bcfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	mirror, err := google.New(ctx, google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}

	var events worker.EventSource
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer client.Close()
		events = client
	} else {
		logger.Info("AMQP not configured, events disabled")
	}

	err = worker.NewSyncWorker(repo, mirror, cfg.SyncInterval).Run(ctx, events)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("sync worker: %w", err)
	}

	logger.Info("Worker shutdown complete", applog.FieldOperation, applog.OpShutdown)
	return nil
}
