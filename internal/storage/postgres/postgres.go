// Package postgres provides a PostgreSQL-backed implementation of the storage.Store interface.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver used by migrate
	"github.com/shopspring/decimal"

	"github.com/mmynk/centsai/internal/models"
	"github.com/mmynk/centsai/internal/storage"
)

var _ storage.Store = (*PostgresStore)(nil)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const uniqueViolation = "23505"

// PostgresStore implements storage.Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL, applies migrations and returns the store.
func New(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if err := runMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	cfg.MaxConnIdleTime = 10 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// CreateUser inserts a new user and populates user.ID.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		user.Email, user.Username, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("create user %s: %w", user.Email, storage.ErrEmailTaken)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a user by email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.getUser(ctx, "email = $1", email)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", email, err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.getUser(ctx, "id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", id, err)
	}
	return user, nil
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	user := &models.User{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, email, username, password_hash, created_at, updated_at FROM users WHERE "+where,
		arg,
	).Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CreateExpense inserts a new expense.
func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return insertExpense(ctx, s.pool, expense)
}

// CreateExpenses inserts all expenses in a single transaction.
func (s *PostgresStore) CreateExpenses(ctx context.Context, expenses []*models.Expense) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, expense := range expenses {
			if err := insertExpense(ctx, tx, expense); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertExpense(ctx context.Context, q querier, expense *models.Expense) error {
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	expense.Version = 1

	err := q.QueryRow(ctx, `
		INSERT INTO expenses (user_id, amount, category, date, version, created_at)
		VALUES ($1, $2::numeric, $3, $4, $5, $6)
		RETURNING id`,
		expense.UserID, expense.Amount.String(), expense.Category, expense.Date.Time, expense.Version, expense.CreatedAt,
	).Scan(&expense.ID)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

const selectExpense = "SELECT id, user_id, amount::text, category, date, version, created_at FROM expenses"

// GetExpense retrieves an expense by ID.
func (s *PostgresStore) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	expense, err := scanExpense(s.pool.QueryRow(ctx, selectExpense+" WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

// ListExpensesByUser returns the user's expenses, newest first.
func (s *PostgresStore) ListExpensesByUser(ctx context.Context, userID int64) ([]models.Expense, error) {
	rows, err := s.pool.Query(ctx, selectExpense+" WHERE user_id = $1 ORDER BY date DESC, id DESC", userID)
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
func (s *PostgresStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE expenses SET amount = $1::numeric, category = $2, date = $3, version = version + 1
		WHERE id = $4 AND version = $5`,
		expense.Amount.String(), expense.Category, expense.Date.Time, expense.ID, expense.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetExpense(ctx, expense.ID); err != nil {
			return err
		}
		return fmt.Errorf("expense %d: %w", expense.ID, storage.ErrVersionConflict)
	}
	expense.Version++
	return nil
}

// DeleteExpense removes an expense by ID.
func (s *PostgresStore) DeleteExpense(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM expenses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense %d: %w", id, storage.ErrNotFound)
	}
	return nil
}

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var (
		expense models.Expense
		amount  string
		date    time.Time
	)
	if err := row.Scan(&expense.ID, &expense.UserID, &amount, &expense.Category, &date, &expense.Version, &expense.CreatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	expense.Amount = d
	expense.Date = models.NewDate(date)
	return &expense, nil
}
