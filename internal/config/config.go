package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"

	ReceiptsLocal = "local"
	ReceiptsGCS   = "gcs"
)

// insecureDevSecret is only accepted with the memory backend.
const insecureDevSecret = "dev-secret-change-me"

type Config struct {
	// HTTP Server
	Port          string
	SecureCookies bool

	// Document store
	DataBackend  string
	SQLiteDBPath string

	// Receipts
	ReceiptsBackend      string
	ReceiptsDir          string
	ReceiptsBaseURL      string
	GCSBucket            string
	ReceiptUploadTimeout time.Duration
	MaxReceiptBytes      int64

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// AMQP, optional: an empty URL disables the sheet mirror
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets mirror
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Worker
	WorkerPort    string
	SyncBatchSize int
	SyncInterval  time.Duration

	// Caching, logging and throttling
	ExpenseCacheTTL time.Duration
	LogLevel        string
	RateLimitRPS    float64
	RateLimitBurst  int
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		SecureCookies: getEnvBool("SECURE_COOKIES", false),

		DataBackend:  getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/nomadledger.db"),

		ReceiptsBackend:      getEnv("RECEIPTS_BACKEND", ReceiptsLocal),
		ReceiptsDir:          getEnv("RECEIPTS_DIR", "./data/receipts"),
		ReceiptsBaseURL:      getEnv("RECEIPTS_BASE_URL", "http://localhost:8080"),
		GCSBucket:            getEnv("GCS_BUCKET", ""),
		ReceiptUploadTimeout: getEnvDuration("RECEIPT_UPLOAD_TIMEOUT", 30*time.Second),
		MaxReceiptBytes:      int64(getEnvInt("MAX_RECEIPT_BYTES", 10<<20)),

		SessionSecret: getEnv("SESSION_SECRET", insecureDevSecret),
		SessionTTL:    getEnvDuration("SESSION_TTL", 7*24*time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "nomadledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_expenses"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "Despesas"),

		WorkerPort:    getEnv("WORKER_PORT", "8081"),
		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),

		ExpenseCacheTTL: getEnvDuration("EXPENSE_CACHE_TTL", 30*time.Second),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 20),
	}
}

// SyncEnabled reports whether created expenses are published for mirroring.
func (c *Config) SyncEnabled() bool {
	return c.AMQPURL != ""
}

// Validate validates the configuration and returns an error listing every problem
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == BackendSQLite && c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
	}

	switch c.ReceiptsBackend {
	case ReceiptsLocal:
		if c.ReceiptsDir == "" {
			errors = append(errors, "receipts directory cannot be empty when using local receipts backend")
		}
		if u, err := url.Parse(c.ReceiptsBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, fmt.Sprintf("invalid receipts base URL '%s': must be an absolute http(s) URL", c.ReceiptsBaseURL))
		}
	case ReceiptsGCS:
		if c.GCSBucket == "" {
			errors = append(errors, "GCS bucket is required when using gcs receipts backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid receipts backend '%s': must be one of [%s %s]", c.ReceiptsBackend, ReceiptsLocal, ReceiptsGCS))
	}
	if c.ReceiptUploadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("invalid receipt upload timeout %v: must be positive", c.ReceiptUploadTimeout))
	}
	if c.MaxReceiptBytes < 1 {
		errors = append(errors, fmt.Sprintf("invalid max receipt size %d: must be at least 1 byte", c.MaxReceiptBytes))
	}

	if len(c.SessionSecret) < 16 {
		errors = append(errors, "session secret must be at least 16 characters")
	} else if c.SessionSecret == insecureDevSecret && c.DataBackend != BackendMemory {
		errors = append(errors, "SESSION_SECRET must be set when using a persistent backend")
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session ttl %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
		if c.DataBackend != BackendSQLite {
			errors = append(errors, "AMQP sync requires the sqlite data backend")
		}
	}

	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}
	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.ExpenseCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid expense cache ttl %v: must not be negative", c.ExpenseCacheTTL))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	if c.RateLimitRPS <= 0 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %v: must be positive", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateWorker checks the settings only the sheet sync worker needs.
func (c *Config) ValidateWorker() error {
	var errors []string
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the sync worker")
	}
	if c.DataBackend != BackendSQLite {
		errors = append(errors, "the sync worker requires DATA_BACKEND=sqlite")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the sync worker")
	}
	if port, err := strconv.Atoi(c.WorkerPort); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid worker port '%s'", c.WorkerPort))
	}
	if len(errors) > 0 {
		return fmt.Errorf("worker configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
