// Package store declares the ports the application uses to reach its
// external collaborators: the expense document store, the identity store and
// the receipt blob store.
package store

import (
	"context"
	"errors"
	"io"

	"nomadledger/internal/core"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrUploadTimeout    = errors.New("receipt upload timed out")
	ErrPermissionDenied = errors.New("permission denied")
)

// Ports for outbound adapters.
type (
	// ExpenseLoader returns every expense of one owner, newest date first.
	ExpenseLoader interface {
		LoadExpenses(ctx context.Context, ownerID string) ([]core.Expense, error)
	}

	// ExpenseSubmitter persists a new expense and returns its assigned id.
	ExpenseSubmitter interface {
		SubmitExpense(ctx context.Context, e core.Expense) (id string, err error)
	}

	// ReceiptUploader stores a receipt image and returns its public URL.
	ReceiptUploader interface {
		UploadReceipt(ctx context.Context, file ReceiptFile, ownerID string) (url string, err error)
	}

	UserStore interface {
		CreateUser(ctx context.Context, u User) error
		FindUserByEmail(ctx context.Context, email string) (User, error)
	}

	ReceiptFile struct {
		Name        string
		ContentType string
		Size        int64
		Body        io.Reader
	}

	User struct {
		ID           string
		Email        string
		PasswordHash []byte
		CreatedAt    int64 // epoch milliseconds
	}
)
