// Package memory is an in-process implementation of the store ports, used
// for local development and tests.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nomadledger/internal/core"
	"nomadledger/internal/store"
)

type Store struct {
	mu       sync.Mutex
	expenses map[string][]core.Expense // by owner
	users    map[string]store.User     // by lower-cased email
	now      func() time.Time
}

func New() *Store {
	return &Store{
		expenses: make(map[string][]core.Expense),
		users:    make(map[string]store.User),
		now:      time.Now,
	}
}

// SubmitExpense stores the expense and assigns it an id and creation time.
func (s *Store) SubmitExpense(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.NewString()
	if e.CreatedAt == 0 {
		e.CreatedAt = s.now().UnixMilli()
	}
	s.expenses[e.OwnerID] = append(s.expenses[e.OwnerID], e)
	return e.ID, nil
}

// LoadExpenses returns a copy of the owner's expenses, newest first.
func (s *Store) LoadExpenses(_ context.Context, ownerID string) ([]core.Expense, error) {
	s.mu.Lock()
	out := append([]core.Expense(nil), s.expenses[ownerID]...)
	s.mu.Unlock()
	core.SortNewestFirst(out)
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, u store.User) error {
	key := strings.ToLower(strings.TrimSpace(u.Email))
	if key == "" {
		return fmt.Errorf("create user: empty email")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; ok {
		return store.ErrEmailTaken
	}
	s.users[key] = u
	return nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

// Ping always succeeds; it exists so the store satisfies readiness checks.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
