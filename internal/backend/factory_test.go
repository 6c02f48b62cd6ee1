package backend

import (
	"context"
	"path/filepath"
	"testing"

	"nomadledger/internal/config"
)

func TestCreateMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:            MemoryBackend,
		Receipts:        LocalReceipts,
		ReceiptsDir:     dir,
		ReceiptsBaseURL: "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	if res.Store == nil || res.Receipts == nil {
		t.Fatal("store and receipts must be set")
	}
	if res.ReceiptsDir != dir {
		t.Errorf("ReceiptsDir = %q, want %q", res.ReceiptsDir, dir)
	}
	if res.Publisher != nil {
		t.Error("publisher must be nil without AMQP_URL")
	}
	if err := res.Store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	dir := t.TempDir()
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:            SQLiteBackend,
		SQLiteDBPath:    filepath.Join(dir, "ledger.db"),
		Receipts:        LocalReceipts,
		ReceiptsDir:     filepath.Join(dir, "receipts"),
		ReceiptsBaseURL: "http://localhost:8080",
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if err := res.Store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory local", Config{Type: MemoryBackend, Receipts: LocalReceipts, ReceiptsDir: "r"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend, Receipts: LocalReceipts, ReceiptsDir: "r"}, true},
		{"gcs without bucket", Config{Type: MemoryBackend, Receipts: GCSReceipts}, true},
		{"unknown type", Config{Type: "sheets", Receipts: LocalReceipts, ReceiptsDir: "r"}, true},
		{"unknown receipts", Config{Type: MemoryBackend, Receipts: "s3"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config must fail")
	}
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:     "sqlite",
		SQLiteDBPath:    "x.db",
		ReceiptsBackend: "gcs",
		GCSBucket:       "bucket",
		AMQPURL:         "amqp://localhost/",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.Receipts != GCSReceipts || cfg.AMQPURL == "" {
		t.Errorf("unexpected config %+v", cfg)
	}
}
