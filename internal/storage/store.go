// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/centsai/internal/models"
)

var (
	// ErrNotFound is returned when the addressed user or expense does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when a user with the same email already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrVersionConflict is returned when an expense changed since it was read.
	ErrVersionConflict = errors.New("expense was modified concurrently")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts the user and populates user.ID.
	// Returns ErrEmailTaken if the email is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound if no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID returns ErrNotFound if the user does not exist.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	// CreateExpense inserts the expense and populates its ID, Version and CreatedAt.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// CreateExpenses inserts all expenses in one transaction; either all are stored or none.
	CreateExpenses(ctx context.Context, expenses []*models.Expense) error

	// GetExpense returns ErrNotFound if the expense does not exist.
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)

	// ListExpensesByUser returns the user's expenses, newest date first.
	ListExpensesByUser(ctx context.Context, userID int64) ([]models.Expense, error)

	// UpdateExpense writes amount, category and date if expense.Version still
	// matches the stored version, then increments expense.Version.
	// Returns ErrNotFound or ErrVersionConflict.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense returns ErrNotFound if nothing was deleted.
	DeleteExpense(ctx context.Context, id int64) error
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore
	ExpenseStore

	// Close releases any resources held by the store.
	Close() error
}
