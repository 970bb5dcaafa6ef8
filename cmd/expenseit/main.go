package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"expenseit/internal/amqp"
	"expenseit/internal/blob"
	"expenseit/internal/blob/gcs"
	blobmem "expenseit/internal/blob/memory"
	"expenseit/internal/config"
	"expenseit/internal/docintel"
	apphttp "expenseit/internal/http"
	"expenseit/internal/ingest"
	"expenseit/internal/storage"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.EnsureDefaultCategories(ctx); err != nil {
		logger.Error("Failed to seed default categories", "error", err)
		os.Exit(1)
	}

	var events *amqp.Client
	if cfg.AMQPURL != "" {
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventsQueue, cfg.AMQPScanJobsQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer events.Close()
		logger.Info("Connected to AMQP", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP not configured, receipt events disabled")
	}

	var orchestrator *ingest.Orchestrator
	if cfg.AnalysisEndpoint != "" {
		var blobs blob.Store
		switch cfg.BlobBackend {
		case "gcs":
			blobs, err = gcs.NewFromEnv(ctx)
			if err != nil {
				logger.Error("Failed to initialize GCS blob store", "error", err)
				os.Exit(1)
			}
		default:
			blobs = blobmem.New()
		}

		analyzer := docintel.NewClient(cfg.AnalysisEndpoint, cfg.AnalysisAPIKey,
			docintel.WithModel(cfg.AnalysisModelID, "2024-11-30"),
			docintel.WithPolling(cfg.PollInterval, cfg.PollMaxAttempts))

		orchestrator = ingest.New(blobs, analyzer, repo, &amqp.Notifier{Client: events},
			ingest.WithConcurrency(cfg.ScanConcurrency))
		logger.Info("Receipt scanning enabled",
			"blob_backend", cfg.BlobBackend,
			"poll_interval", cfg.PollInterval,
			"poll_max_attempts", cfg.PollMaxAttempts)
	} else {
		logger.Info("Analysis endpoint not configured, receipt scanning disabled")
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, orchestrator, events)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting expenseit server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
