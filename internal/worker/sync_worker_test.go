package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nomadledger/internal/amqp"
	"nomadledger/internal/core"
	"nomadledger/internal/store"
)

type fakeSource struct {
	mu       sync.Mutex
	expenses map[string]core.Expense
	status   map[string]string
	getErr   error
}

func newFakeSource(ids ...string) *fakeSource {
	f := &fakeSource{expenses: map[string]core.Expense{}, status: map[string]string{}}
	for _, id := range ids {
		f.expenses[id] = core.Expense{
			ID: id, OwnerID: "u1", Description: "d " + id, Amount: decimal.NewFromInt(1),
			Currency: core.CurrencyBRL, Date: "2024-01-01", Category: core.CategoryFood,
		}
		f.status[id] = "pending"
	}
	return f
}

func (f *fakeSource) GetExpense(_ context.Context, id string) (core.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return core.Expense{}, f.getErr
	}
	e, ok := f.expenses[id]
	if !ok {
		return core.Expense{}, store.ErrNotFound
	}
	return e, nil
}

func (f *fakeSource) GetPendingSyncExpenses(_ context.Context, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for id, st := range f.status {
		if st != "synced" && len(out) < limit {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeSource) MarkSynced(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[id] = "synced"
	return nil
}

func (f *fakeSource) MarkSyncError(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[id] = "error"
	return nil
}

type fakeSheet struct {
	rows []core.Expense
	fail map[string]bool
}

func (s *fakeSheet) Append(_ context.Context, e core.Expense) (string, error) {
	if s.fail[e.ID] {
		return "", errors.New("quota exceeded")
	}
	s.rows = append(s.rows, e)
	return "Despesas!A2:H2", nil
}

func TestHandleExpenseCreated(t *testing.T) {
	src := newFakeSource("e1")
	sheet := &fakeSheet{}
	w := NewSyncWorker(src, sheet, nil, 10)

	require.NoError(t, w.HandleExpenseCreated(context.Background(), &amqp.ExpenseCreatedMessage{ExpenseID: "e1"}))
	assert.Len(t, sheet.rows, 1)
	assert.Equal(t, "synced", src.status["e1"])
}

func TestHandleExpenseCreatedMissingIsAcked(t *testing.T) {
	w := NewSyncWorker(newFakeSource(), &fakeSheet{}, nil, 10)
	assert.NoError(t, w.HandleExpenseCreated(context.Background(), &amqp.ExpenseCreatedMessage{ExpenseID: "gone"}))
}

func TestHandleExpenseCreatedSheetFailureRequeues(t *testing.T) {
	src := newFakeSource("e1")
	w := NewSyncWorker(src, &fakeSheet{fail: map[string]bool{"e1": true}}, nil, 10)

	err := w.HandleExpenseCreated(context.Background(), &amqp.ExpenseCreatedMessage{ExpenseID: "e1"})
	require.Error(t, err)
	assert.Equal(t, "error", src.status["e1"])
}

func TestHandleExpenseCreatedStorageFailure(t *testing.T) {
	src := newFakeSource("e1")
	src.getErr = errors.New("database is locked")
	w := NewSyncWorker(src, &fakeSheet{}, nil, 10)
	assert.Error(t, w.HandleExpenseCreated(context.Background(), &amqp.ExpenseCreatedMessage{ExpenseID: "e1"}))
}

func TestProcessPendingExpenses(t *testing.T) {
	src := newFakeSource("a", "b", "c")
	sheet := &fakeSheet{fail: map[string]bool{"b": true}}
	w := NewSyncWorker(src, sheet, nil, 10)

	synced, err := w.ProcessPendingExpenses(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)
	assert.Equal(t, "synced", src.status["a"])
	assert.Equal(t, "error", src.status["b"])
	assert.Equal(t, "synced", src.status["c"])

	// failed rows are picked up again
	sheet.fail = nil
	synced, err = w.ProcessPendingExpenses(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)
}

func TestStartupSyncCheckEmpty(t *testing.T) {
	w := NewSyncWorker(newFakeSource(), &fakeSheet{}, nil, 0)
	assert.NoError(t, w.StartupSyncCheck(context.Background()))
}
