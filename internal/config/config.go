// Package config loads the application configuration from environment
// variables. The binaries load an optional .env file first (godotenv), then
// call Load and Validate.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Database
	SQLiteDBPath string

	// Document analysis service
	AnalysisEndpoint string
	AnalysisAPIKey   string
	AnalysisModelID  string
	PollInterval     time.Duration
	PollMaxAttempts  int

	// Object storage
	BlobBackend string // "gcs" or "memory"
	GCSBucket   string

	// AMQP (optional; empty URL disables eventing and the scan worker)
	AMQPURL           string
	AMQPExchange      string
	AMQPEventsQueue   string
	AMQPScanJobsQueue string

	// Ingestion
	ScanConcurrency int
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expenseit.db"),

		AnalysisEndpoint: getEnv("ANALYSIS_ENDPOINT", ""),
		AnalysisAPIKey:   getEnv("ANALYSIS_API_KEY", ""),
		AnalysisModelID:  getEnv("ANALYSIS_MODEL_ID", "prebuilt-receipt"),
		PollInterval:     getEnvDuration("ANALYSIS_POLL_INTERVAL", 2*time.Second),
		PollMaxAttempts:  getEnvInt("ANALYSIS_POLL_MAX_ATTEMPTS", 10),

		BlobBackend: getEnv("BLOB_BACKEND", "gcs"),
		GCSBucket:   getEnv("GCS_BUCKET", ""),

		AMQPURL:           getEnv("AMQP_URL", ""),
		AMQPExchange:      getEnv("AMQP_EXCHANGE", "expenseit"),
		AMQPEventsQueue:   getEnv("AMQP_EVENTS_QUEUE", "receipt_events"),
		AMQPScanJobsQueue: getEnv("AMQP_SCAN_JOBS_QUEUE", "scan_jobs"),

		ScanConcurrency: getEnvInt("SCAN_CONCURRENCY", 3),
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	}

	if c.AnalysisEndpoint != "" {
		if u, err := url.Parse(c.AnalysisEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("invalid analysis endpoint '%s'", c.AnalysisEndpoint))
		}
		if c.AnalysisAPIKey == "" {
			errs = append(errs, "analysis API key required when endpoint is set")
		}
	}

	if c.PollInterval <= 0 {
		errs = append(errs, "poll interval must be positive")
	}
	if c.PollMaxAttempts < 1 {
		errs = append(errs, "poll max attempts must be at least 1")
	}

	switch c.BlobBackend {
	case "gcs":
		// The blob store is only constructed when scanning is enabled, so
		// the bucket is only required then.
		if c.AnalysisEndpoint != "" && c.GCSBucket == "" {
			errs = append(errs, "GCS bucket required for the gcs blob backend")
		}
	case "memory":
	default:
		errs = append(errs, fmt.Sprintf("invalid blob backend '%s': must be 'gcs' or 'memory'", c.BlobBackend))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ScanConcurrency < 1 {
		errs = append(errs, "scan concurrency must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
