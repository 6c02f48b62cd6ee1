package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomadledger/internal/core"
	"nomadledger/internal/log"
	"nomadledger/internal/store"
	"nomadledger/internal/store/memory"
)

func seeded(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()
	require.NoError(t, mem.CreateUser(ctx, store.User{ID: "u1", Email: "ana@example.com"}))
	for _, e := range []core.Expense{
		{OwnerID: "u1", Description: "Jantar", Amount: decimal.NewFromInt(100), Currency: core.CurrencyBRL, Date: "2024-01-10", Category: core.CategoryFood},
		{OwnerID: "u1", Description: "Táxi", Amount: decimal.NewFromInt(50), Currency: core.CurrencyBRL, Date: "2024-02-05", Category: core.CategoryTransport},
	} {
		_, err := mem.SubmitExpense(ctx, e)
		require.NoError(t, err)
	}
	return mem
}

func TestRunExportCSVToStdout(t *testing.T) {
	var out bytes.Buffer
	err := runExport(context.Background(), seeded(t), log.Discard(), exportOptions{
		email: "ana@example.com", start: "2024-01-01", end: "2024-01-31", format: "csv", out: "-",
	}, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "10/01/2024;Jantar;Alimentação;100,00;BRL;", lines[1])
}

func TestRunExportPDFToDefaultFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	var out bytes.Buffer
	err := runExport(context.Background(), seeded(t), log.Discard(), exportOptions{
		email: "ana@example.com", format: "pdf",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "wrote 2 expenses to relatorio_despesas_inicio_fim.pdf")

	data, err := os.ReadFile(filepath.Join(dir, "relatorio_despesas_inicio_fim.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestRunExportErrors(t *testing.T) {
	mem := seeded(t)
	tests := []struct {
		name string
		opts exportOptions
		want string
	}{
		{"unknown account", exportOptions{email: "bob@example.com", format: "csv"}, "no account for bob@example.com"},
		{"empty range", exportOptions{email: "ana@example.com", start: "2030-01-01", format: "csv"}, "no expenses"},
		{"bad format", exportOptions{email: "ana@example.com", format: "xlsx"}, "unknown"},
		{"bad date", exportOptions{email: "ana@example.com", end: "2024-02-30", format: "csv"}, "invalid range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runExport(context.Background(), mem, log.Discard(), tt.opts, &bytes.Buffer{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestExportRequiresEmail(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"export", "--db", filepath.Join(t.TempDir(), "x.db")})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestMigrateCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "nested", "ledger.db")
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"migrate", "--db", db})
	cmd.SetOut(&out)
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "schema at version")
	_, err := os.Stat(db)
	assert.NoError(t, err)
}
