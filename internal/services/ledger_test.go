package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomadledger/internal/cache"
	"nomadledger/internal/core"
	"nomadledger/internal/report"
)

type countingLoader struct {
	expenses []core.Expense
	err      error
	calls    int
}

func (l *countingLoader) LoadExpenses(context.Context, string) ([]core.Expense, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	out := make([]core.Expense, len(l.expenses))
	copy(out, l.expenses)
	return out, nil
}

func ledgerFixture() []core.Expense {
	mk := func(date core.ISODate, amount string, cat core.Category, created int64) core.Expense {
		return core.Expense{
			ID: string(date), OwnerID: "u1", Description: "x", Amount: decimal.RequireFromString(amount),
			Currency: core.CurrencyBRL, Date: date, Category: cat, CreatedAt: created,
		}
	}
	return []core.Expense{
		mk("2024-01-05", "10", core.CategoryFood, 1),
		mk("2024-02-10", "20", core.CategoryTransport, 2),
		mk("2024-01-31", "30", core.CategoryFood, 3),
	}
}

func TestLedgerViewFiltersAndSummarizes(t *testing.T) {
	loader := &countingLoader{expenses: ledgerFixture()}
	l := NewLedger(loader, nil, nil, nil)

	b := core.DateBounds{Start: "2024-01-01", End: "2024-01-31"}
	v := l.View(context.Background(), "u1", b)

	require.Len(t, v.All, 3)
	assert.Equal(t, core.ISODate("2024-02-10"), v.All[0].Date, "newest first")
	require.Len(t, v.Filtered, 2)
	assert.Equal(t, 2, v.Overview.Count)
	assert.True(t, v.Overview.TotalSpent.Equal(decimal.NewFromInt(40)))
	require.Len(t, v.Overview.Categories, 1)
	assert.Equal(t, core.CategoryFood, v.Overview.Categories[0].Category)
}

func TestLedgerLoadFailsOpen(t *testing.T) {
	l := NewLedger(&countingLoader{err: errors.New("unavailable")}, nil, nil, nil)
	got := l.Load(context.Background(), "u1")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLedgerCacheAndInvalidate(t *testing.T) {
	loader := &countingLoader{expenses: ledgerFixture()}
	l := NewLedger(loader, cache.NewLRUCache[[]core.Expense](10, time.Minute), nil, nil)

	l.Load(context.Background(), "u1")
	l.Load(context.Background(), "u1")
	assert.Equal(t, 1, loader.calls)

	l.Invalidate("u1")
	l.Load(context.Background(), "u1")
	assert.Equal(t, 2, loader.calls)
}

func TestLedgerExport(t *testing.T) {
	l := NewLedger(&countingLoader{expenses: ledgerFixture()}, nil, nil, nil)
	l.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	b := core.DateBounds{Start: "2024-01-01", End: "2024-01-31"}
	csv, err := l.Export(context.Background(), "u1", "ana@example.com", b, report.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "relatorio_despesas_2024-01-01_2024-01-31.csv", csv.Filename)
	assert.Equal(t, 2, csv.Rows)
	assert.Equal(t, 3, bytes.Count(csv.Body, []byte("\n")))

	pdf, err := l.Export(context.Background(), "u1", "", core.DateBounds{}, report.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, bytes.HasPrefix(pdf.Body, []byte("%PDF-")))
}

func TestLedgerExportEmptyRange(t *testing.T) {
	l := NewLedger(&countingLoader{expenses: ledgerFixture()}, nil, nil, nil)
	_, err := l.Export(context.Background(), "u1", "", core.DateBounds{Start: "2025-01-01"}, report.FormatCSV)
	assert.ErrorIs(t, err, report.ErrNoExpenses)
}
