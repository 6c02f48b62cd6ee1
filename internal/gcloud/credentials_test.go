package gcloud

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCredentialsJSONPrecedence(t *testing.T) {
	ctx := context.Background()
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	if _, err := CredentialsJSON(ctx); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
	b, err := CredentialsJSON(ctx)
	if err != nil || string(b) != `{"from":"file"}` {
		t.Fatalf("unexpected %q %v", b, err)
	}

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"from":"env"}`)
	b, err = CredentialsJSON(ctx)
	if err != nil || string(b) != `{"from":"env"}` {
		t.Fatalf("inline JSON should win, got %q %v", b, err)
	}
}

func TestCredentialsJSONMissingFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", filepath.Join(t.TempDir(), "nope.json"))
	if _, err := CredentialsJSON(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
