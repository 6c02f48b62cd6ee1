package backend

import (
	"fmt"

	"nomadledger/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Type:            BackendType(appConfig.DataBackend),
		SQLiteDBPath:    appConfig.SQLiteDBPath,
		Receipts:        ReceiptsType(appConfig.ReceiptsBackend),
		ReceiptsDir:     appConfig.ReceiptsDir,
		ReceiptsBaseURL: appConfig.ReceiptsBaseURL,
		GCSBucket:       appConfig.GCSBucket,
		AMQPURL:         appConfig.AMQPURL,
		AMQPExchange:    appConfig.AMQPExchange,
		AMQPQueue:       appConfig.AMQPQueue,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}

	switch c.Receipts {
	case LocalReceipts:
		if c.ReceiptsDir == "" {
			return fmt.Errorf("receipts directory is required for local receipts")
		}
	case GCSReceipts:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS bucket is required for gcs receipts")
		}
	default:
		return fmt.Errorf("invalid receipts type: %s", c.Receipts)
	}
	return nil
}
