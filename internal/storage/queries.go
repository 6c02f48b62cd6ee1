package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Expense mirrors a row of the expenses table.
type Expense struct {
	ID          string
	OwnerID     string
	Description string
	Amount      string
	Currency    string
	Date        string
	Category    string
	ReceiptURL  string
	CreatedAt   int64
	SyncStatus  string
}

type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	CreatedAt    int64
}

const expenseColumns = `id, owner_id, description, amount, currency, date, category, receipt_url, created_at, sync_status`

const createExpense = `INSERT INTO expenses (id, owner_id, description, amount, currency, date, category, receipt_url, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateExpenseParams struct {
	ID          string
	OwnerID     string
	Description string
	Amount      string
	Currency    string
	Date        string
	Category    string
	ReceiptURL  string
	CreatedAt   int64
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) error {
	_, err := q.db.ExecContext(ctx, createExpense,
		arg.ID,
		arg.OwnerID,
		arg.Description,
		arg.Amount,
		arg.Currency,
		arg.Date,
		arg.Category,
		arg.ReceiptURL,
		arg.CreatedAt,
	)
	return err
}

const listExpensesByOwner = `SELECT ` + expenseColumns + ` FROM expenses
WHERE owner_id = ?
ORDER BY date DESC, created_at DESC`

func (q *Queries) ListExpensesByOwner(ctx context.Context, ownerID string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		i, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`

func (q *Queries) GetExpense(ctx context.Context, id string) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id))
}

const getPendingSyncExpenses = `SELECT id FROM expenses
WHERE sync_status IN ('pending', 'error')
ORDER BY created_at ASC
LIMIT ?`

func (q *Queries) GetPendingSyncExpenses(ctx context.Context, limit int64) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncExpenses, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const markExpenseSynced = `UPDATE expenses SET sync_status = 'synced', synced_at = ? WHERE id = ?`

func (q *Queries) MarkExpenseSynced(ctx context.Context, id string, at int64) error {
	_, err := q.db.ExecContext(ctx, markExpenseSynced, at, id)
	return err
}

const markExpenseSyncError = `UPDATE expenses SET sync_status = 'error' WHERE id = ?`

func (q *Queries) MarkExpenseSyncError(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, markExpenseSyncError, id)
	return err
}

const createUser = `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, u User) error {
	_, err := q.db.ExecContext(ctx, createUser, u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	return err
}

const getUserByEmail = `SELECT id, email, password_hash, created_at FROM users WHERE email = ? COLLATE NOCASE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := q.db.QueryRowContext(ctx, getUserByEmail, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanExpense(row rowScanner) (Expense, error) {
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.OwnerID,
		&i.Description,
		&i.Amount,
		&i.Currency,
		&i.Date,
		&i.Category,
		&i.ReceiptURL,
		&i.CreatedAt,
		&i.SyncStatus,
	)
	return i, err
}
