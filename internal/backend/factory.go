package backend

import (
	"context"
	"errors"
	"fmt"

	"nomadledger/internal/amqp"
	"nomadledger/internal/blob"
	"nomadledger/internal/log"
	"nomadledger/internal/storage"
	"nomadledger/internal/store"
	"nomadledger/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &BackendResult{}
	var closers []func() error

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.Store = repo
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MemoryBackend:
		res.Store = memory.New()
		f.logger.Warn("Using in-memory backend, data is lost on restart")
	}
	closers = append(closers, res.Store.Close)

	receipts, dir, err := f.createReceipts(ctx, config)
	if err != nil {
		res.Store.Close()
		return nil, err
	}
	res.Receipts = receipts
	res.ReceiptsDir = dir

	// AMQP is optional: a broker outage must not keep the app from serving.
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without sync", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.Publisher = client
			closers = append(closers, client.Close)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return res, nil
}

func (f *DefaultFactory) createReceipts(ctx context.Context, config Config) (store.ReceiptUploader, string, error) {
	switch config.Receipts {
	case GCSReceipts:
		gcs, err := blob.NewGCSStore(ctx, config.GCSBucket)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize GCS receipts: %w", err)
		}
		f.logger.Info("Initialized GCS receipts", "bucket", config.GCSBucket)
		return gcs, "", nil
	default:
		local, err := blob.NewLocalStore(config.ReceiptsDir, config.ReceiptsBaseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize local receipts: %w", err)
		}
		f.logger.Info("Initialized local receipts", "dir", config.ReceiptsDir)
		return local, local.Root(), nil
	}
}
