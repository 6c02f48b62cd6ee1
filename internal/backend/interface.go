// Package backend wires the document store, receipt store and sync publisher
// selected by configuration.
package backend

import (
	"context"

	"nomadledger/internal/services"
	"nomadledger/internal/store"
)

// DocumentStore is everything the web app needs from the expense and identity store.
type DocumentStore interface {
	store.ExpenseLoader
	store.ExpenseSubmitter
	store.UserStore
	Ping(ctx context.Context) error
	Close() error
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the wired collaborators and their cleanup function
type BackendResult struct {
	Store    DocumentStore
	Receipts store.ReceiptUploader
	// ReceiptsDir is set when receipts live on local disk and must be served
	// by the app itself.
	ReceiptsDir string
	// Publisher is nil when sync is disabled or the broker was unreachable.
	Publisher services.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Receipts
	Receipts        ReceiptsType
	ReceiptsDir     string
	ReceiptsBaseURL string
	GCSBucket       string

	// Optional sync publisher
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of document store
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// ReceiptsType selects the receipt blob store
type ReceiptsType string

const (
	LocalReceipts ReceiptsType = "local"
	GCSReceipts   ReceiptsType = "gcs"
)

func (rt ReceiptsType) IsValid() bool {
	return rt == LocalReceipts || rt == GCSReceipts
}
