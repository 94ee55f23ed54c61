// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	moderncsqlite "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/centsai/internal/models"
	"github.com/mmynk/centsai/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Foreign keys and busy timeout are per-connection, so they go in the DSN.
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	if err := runMigrations(dsn); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// CreateExpense persists a new expense to the database.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return insertExpense(ctx, s.db, expense)
}

// CreateExpenses persists all expenses atomically.
func (s *SQLiteStore) CreateExpenses(ctx context.Context, expenses []*models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, expense := range expenses {
		if err := insertExpense(ctx, tx, expense); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertExpense(ctx context.Context, db execer, expense *models.Expense) error {
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	expense.Version = 1

	result, err := db.ExecContext(ctx,
		"INSERT INTO expenses (user_id, amount, category, date, version, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		expense.UserID, expense.Amount.String(), expense.Category, expense.Date.String(), expense.Version, expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read expense id: %w", err)
	}
	expense.ID = id
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, amount, category, date, version, created_at FROM expenses WHERE id = ?",
		id,
	)
	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// ListExpensesByUser retrieves the user's expenses, newest first.
func (s *SQLiteStore) ListExpensesByUser(ctx context.Context, userID int64) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, amount, category, date, version, created_at FROM expenses WHERE user_id = ? ORDER BY date DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense applies an optimistic update guarded by expense.Version.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET amount = ?, category = ?, date = ?, version = version + 1 WHERE id = ? AND version = ?",
		expense.Amount.String(), expense.Category, expense.Date.String(), expense.ID, expense.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.GetExpense(ctx, expense.ID); err != nil {
			return err
		}
		return fmt.Errorf("expense %d: %w", expense.ID, storage.ErrVersionConflict)
	}

	expense.Version++
	return nil
}

// DeleteExpense removes an expense by ID.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(row scanner) (*models.Expense, error) {
	var (
		expense models.Expense
		date    string
	)
	if err := row.Scan(
		&expense.ID,
		&expense.UserID,
		&expense.Amount,
		&expense.Category,
		&date,
		&expense.Version,
		&expense.CreatedAt,
	); err != nil {
		return nil, err
	}

	d, err := models.ParseDate(date)
	if err != nil {
		return nil, err
	}
	expense.Date = d
	return &expense, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
