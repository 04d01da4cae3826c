package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting fintrack-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("Worker error", log.FieldError, err)
		cancel()
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

// run refreshes the report on a timer and, when the event feed is
// configured, after every consumed transaction event.
func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	if cfg.StoreBackend == string(backend.MemoryBackend) {
		return fmt.Errorf("the report worker needs a shared store, %s backend is process-local", cfg.StoreBackend)
	}

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("backend configuration: %w", err)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		return fmt.Errorf("storage backend %s: %w", cfg.StoreBackend, err)
	}
	defer result.Close(logger)

	repo := storage.New(result.Store,
		storage.WithKey(cfg.StorageKey),
		storage.WithLogger(logger))
	reports := worker.NewReportWorker(repo, cfg.ReportDir, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return reports.Run(gctx, cfg.ReportInterval)
	})

	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return fmt.Errorf("connect AMQP: %w", err)
		}
		defer client.Close()

		g.Go(func() error {
			err := client.ConsumeTransactionEvents(gctx, reports.HandleEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP not configured, refreshing the report on a timer only",
			"interval", cfg.ReportInterval)
	}

	logger.Info("Report worker running", "path", reports.Path(), log.FieldBackend, cfg.StoreBackend)
	return g.Wait()
}
