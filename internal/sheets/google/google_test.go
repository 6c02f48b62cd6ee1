package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"nomadledger/internal/core"
)

func testExpense() core.Expense {
	return core.Expense{
		ID:          "exp-1",
		OwnerID:     "user-1",
		Description: "Ônibus",
		Amount:      decimal.RequireFromString("4.40"),
		Currency:    core.CurrencyBRL,
		Date:        "2024-01-15",
		Category:    core.CategoryTransport,
	}
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, err := NewFromEnv(context.Background())
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background())
	if err == nil || !strings.Contains(err.Error(), "sheets credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestClient_AppendValidates(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	bad := testExpense()
	bad.Date = "2024-01-32"

	_, err := c.Append(context.Background(), bad)
	if !errors.Is(err, core.ErrInvalidDay) {
		t.Errorf("expected ErrInvalidDay, got: %v", err)
	}
}

func TestClient_AppendNilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.Append(context.Background(), testExpense()); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestExpenseRow(t *testing.T) {
	e := testExpense()
	e.ReceiptURL = "https://r.example/1.jpg"
	row := expenseRow(e)
	if len(row) != len(Header) {
		t.Fatalf("row has %d cells, header %d", len(row), len(Header))
	}
	if row[0] != "2024-01-15" || row[2] != "Transporte" || row[3] != 4.4 || row[5] != "https://r.example/1.jpg" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestClient_AppendSendsRow(t *testing.T) {
	var gotPath string
	var gotBody gsheet.ValueRange
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"spreadsheetId":"sheet-id","updates":{"updatedRange":"Despesas!A7:H7","updatedRows":1}}`))
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatal(err)
	}
	c := New(svc, "sheet-id", "")

	ref, err := c.Append(context.Background(), testExpense())
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "Despesas!A7:H7" {
		t.Errorf("ref = %q", ref)
	}
	if !strings.Contains(gotPath, "/spreadsheets/sheet-id/values/") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if len(gotBody.Values) != 1 || gotBody.Values[0][1] != "Ônibus" {
		t.Errorf("unexpected body %+v", gotBody.Values)
	}
}
