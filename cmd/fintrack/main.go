package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

const cacheCleanupInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		cancel()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run wires storage, the tracker, the optional event feed and the HTTP
// server, and blocks until ctx is cancelled or the server fails.
func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
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

	// Left as a nil interface when the feed is disabled or unreachable, so
	// the tracker skips publishing entirely.
	var publisher services.EventPublisher
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, transaction events disabled",
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeNetwork)
		} else {
			publisher = client
			defer func() {
				if err := client.Close(); err != nil {
					logger.Warn("Failed to close AMQP client", log.FieldError, err)
				}
			}()
			logger.Info("Publishing transaction events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	tracker := services.NewTracker(repo, publisher, logger)
	tracker.Load(ctx)

	cacheManager := cache.NewManager(logger)
	cacheManager.StartCleanup(cacheCleanupInterval)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, tracker, logger,
		apphttp.WithRecentLimit(cfg.RecentLimit),
		apphttp.WithViewCacheTTL(cfg.ViewCacheTTL),
		apphttp.WithCacheManager(cacheManager))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			log.FieldBackend, cfg.StoreBackend,
			log.FieldKey, repo.Key(),
			log.FieldCount, len(tracker.Transactions()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
