// Package worker mirrors stored expenses into the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nomadledger/internal/amqp"
	"nomadledger/internal/core"
	"nomadledger/internal/metrics"
	"nomadledger/internal/sheets"
	"nomadledger/internal/store"
)

// ExpenseSource is the part of the SQLite repository the worker needs.
type ExpenseSource interface {
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	GetPendingSyncExpenses(ctx context.Context, limit int) ([]string, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
}

// SyncWorker handles synchronization of expenses from SQLite to Google Sheets
type SyncWorker struct {
	storage   ExpenseSource
	sheets    sheets.ExpenseWriter
	metrics   *metrics.Metrics
	batchSize int
}

func NewSyncWorker(storage ExpenseSource, sheets sheets.ExpenseWriter, m *metrics.Metrics, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SyncWorker{
		storage:   storage,
		sheets:    sheets,
		metrics:   m,
		batchSize: batchSize,
	}
}

// HandleExpenseCreated processes a single expense created message from AMQP.
// A missing expense is acknowledged; any other failure is returned so the
// message is requeued.
func (w *SyncWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	slog.InfoContext(ctx, "Processing expense created message",
		"expense_id", msg.ExpenseID,
		"owner_id", msg.OwnerID)

	expense, err := w.storage.GetExpense(ctx, msg.ExpenseID)
	if errors.Is(err, store.ErrNotFound) {
		slog.WarnContext(ctx, "Expense from message no longer exists", "expense_id", msg.ExpenseID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	if err := w.syncExpense(ctx, expense); err != nil {
		return fmt.Errorf("sync expense to sheets: %w", err)
	}
	return nil
}

// ProcessPendingExpenses syncs up to limit expenses still marked pending or
// failed. It is the backup path for lost AMQP messages.
func (w *SyncWorker) ProcessPendingExpenses(ctx context.Context, limit int) (synced int, err error) {
	ids, err := w.storage.GetPendingSyncExpenses(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("get pending expenses: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(ids))

	failed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return synced, ctx.Err()
		}
		expense, err := w.storage.GetExpense(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get expense", "id", id, "error", err)
			if err := w.storage.MarkSyncError(ctx, id); err != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", err)
			}
			failed++
			continue
		}
		if err := w.syncExpense(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to sync expense", "id", id, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Pending sync completed",
		"total", len(ids),
		"synced", synced,
		"errors", failed)
	return synced, nil
}

// StartupSyncCheck drains a larger batch at worker startup to recover from
// downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	_, err := w.ProcessPendingExpenses(ctx, w.batchSize*5)
	return err
}

// Run processes pending expenses every interval until ctx is done.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.ProcessPendingExpenses(ctx, w.batchSize); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) syncExpense(ctx context.Context, e core.Expense) error {
	ref, err := w.sheets.Append(ctx, e)
	if err != nil {
		w.metrics.ExpenseSynced(metrics.StatusError)
		if markErr := w.storage.MarkSyncError(ctx, e.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", e.ID, "error", markErr)
		}
		return err
	}
	if err := w.storage.MarkSynced(ctx, e.ID); err != nil {
		return err
	}
	w.metrics.ExpenseSynced(metrics.StatusOK)
	slog.InfoContext(ctx, "Expense mirrored to sheet", "id", e.ID, "sheets_ref", ref)
	return nil
}
