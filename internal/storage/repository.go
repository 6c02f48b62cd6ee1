package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"nomadledger/internal/core"
	"nomadledger/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return NewWithDB(db), nil
}

// NewWithDB wraps an already opened and migrated database.
func NewWithDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, queries: New(db), now: time.Now}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SubmitExpense implements store.ExpenseSubmitter
func (r *SQLiteRepository) SubmitExpense(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	createdAt := e.CreatedAt
	if createdAt == 0 {
		createdAt = r.now().UnixMilli()
	}
	err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		ID:          id,
		OwnerID:     e.OwnerID,
		Description: e.Description,
		Amount:      e.Amount.StringFixed(2),
		Currency:    string(e.Currency),
		Date:        e.Date.String(),
		Category:    string(e.Category),
		ReceiptURL:  e.ReceiptURL,
		CreatedAt:   createdAt,
	})
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"owner_id", e.OwnerID,
		"amount", e.Amount.StringFixed(2),
		"currency", e.Currency,
		"date", e.Date)

	return id, nil
}

// LoadExpenses implements store.ExpenseLoader
func (r *SQLiteRepository) LoadExpenses(ctx context.Context, ownerID string) ([]core.Expense, error) {
	rows, err := r.queries.ListExpensesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := row.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// GetExpense returns a single expense by id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, store.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %s: %w", id, err)
	}
	return row.toCore()
}

// GetPendingSyncExpenses returns ids of expenses not yet mirrored to the spreadsheet.
func (r *SQLiteRepository) GetPendingSyncExpenses(ctx context.Context, limit int) ([]string, error) {
	ids, err := r.queries.GetPendingSyncExpenses(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync expenses: %w", err)
	}
	return ids, nil
}

// MarkSynced marks an expense as successfully synced
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if err := r.queries.MarkExpenseSynced(ctx, id, r.now().UnixMilli()); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as synced", "id", id)
	return nil
}

// MarkSyncError marks an expense as having sync errors
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if err := r.queries.MarkExpenseSyncError(ctx, id); err != nil {
		return fmt.Errorf("mark expense sync error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with sync error", "id", id)
	return nil
}

// CreateUser implements store.UserStore
func (r *SQLiteRepository) CreateUser(ctx context.Context, u store.User) error {
	err := r.queries.CreateUser(ctx, User{
		ID:           u.ID,
		Email:        strings.TrimSpace(u.Email),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrEmailTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// FindUserByEmail implements store.UserStore
func (r *SQLiteRepository) FindUserByEmail(ctx context.Context, email string) (store.User, error) {
	u, err := r.queries.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, sql.ErrNoRows) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("find user: %w", err)
	}
	return store.User{ID: u.ID, Email: u.Email, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt}, nil
}

func (e Expense) toCore() (core.Expense, error) {
	amount, err := decimal.NewFromString(e.Amount)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %s: bad amount %q: %w", e.ID, e.Amount, err)
	}
	return core.Expense{
		ID:          e.ID,
		OwnerID:     e.OwnerID,
		Description: e.Description,
		Amount:      amount,
		Currency:    core.Currency(e.Currency),
		Date:        core.ISODate(e.Date),
		Category:    core.Category(e.Category),
		ReceiptURL:  e.ReceiptURL,
		CreatedAt:   e.CreatedAt,
	}, nil
}
