package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"expenseit/internal/amqp"
	blobmem "expenseit/internal/blob/memory"
	"expenseit/internal/config"
	"expenseit/internal/docintel"
	"expenseit/internal/ingest"
	applog "expenseit/internal/log"
	"expenseit/internal/storage"
)

// The scan worker drains the scan jobs queue: each job carries the URL of an
// already-uploaded receipt image, and the worker runs it through the same
// ingestion pipeline the API server uses for direct uploads.
func main() {
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "worker"})
	applog.SetDefault(logger)

	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the scan worker")
		os.Exit(1)
	}
	if cfg.AnalysisEndpoint == "" {
		logger.Error("ANALYSIS_ENDPOINT is required for the scan worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

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

	events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPEventsQueue, cfg.AMQPScanJobsQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP", "error", err)
		os.Exit(1)
	}
	defer events.Close()

	analyzer := docintel.NewClient(cfg.AnalysisEndpoint, cfg.AnalysisAPIKey,
		docintel.WithModel(cfg.AnalysisModelID, "2024-11-30"),
		docintel.WithPolling(cfg.PollInterval, cfg.PollMaxAttempts))

	// Jobs reference images that are already uploaded, so the blob store is
	// never touched on this path.
	orchestrator := ingest.New(blobmem.New(), analyzer, repo, &amqp.Notifier{Client: events})

	logger.Info("Starting scan worker",
		"queue", cfg.AMQPScanJobsQueue,
		"poll_interval", cfg.PollInterval,
		"poll_max_attempts", cfg.PollMaxAttempts)

	err = events.ConsumeScanJobs(ctx, func(msg *amqp.ScanJobMessage) error {
		res := orchestrator.IngestURL(ctx, msg.DocumentURL)
		if res.Err != nil {
			return res.Err
		}
		logger.Info("Scan job processed", "document_url", msg.DocumentURL, "receipt_id", res.ReceiptID)
		return nil
	})
	if err != nil && err != context.Canceled {
		logger.Error("Scan worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Scan worker stopped gracefully")
}
