package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/centsai/internal/models"
	"github.com/mmynk/centsai/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newExpense(userID int64, amount, category, date string) *models.Expense {
	d, _ := models.ParseDate(date)
	return &models.Expense{
		UserID:   userID,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     d,
	}
}

func TestSQLiteStoreUsers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("alice@example.com", "alice", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("Expected user ID to be assigned")
	}

	t.Run("GetUserByEmail returns the stored user", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got.ID != user.ID || got.Username != "alice" || got.PasswordHash != "hash" {
			t.Errorf("Unexpected user: %+v", got)
		}
	})

	t.Run("GetUserByID returns the stored user", func(t *testing.T) {
		got, err := store.GetUserByID(ctx, user.ID)
		if err != nil {
			t.Fatalf("GetUserByID failed: %v", err)
		}
		if got.Email != user.Email {
			t.Errorf("Email mismatch: got %s, want %s", got.Email, user.Email)
		}
	})

	t.Run("missing users return ErrNotFound", func(t *testing.T) {
		if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
		if _, err := store.GetUserByID(ctx, 999); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("duplicate email returns ErrEmailTaken", func(t *testing.T) {
		dup := models.NewUser("alice@example.com", "alice2", "hash2")
		if err := store.CreateUser(ctx, dup); !errors.Is(err, storage.ErrEmailTaken) {
			t.Errorf("Expected ErrEmailTaken, got %v", err)
		}
	})
}

func TestSQLiteStoreExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := models.NewUser("bob@example.com", "bob", "hash")
	if err := store.CreateUser(ctx, owner); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	t.Run("CreateExpense assigns ID and version", func(t *testing.T) {
		expense := newExpense(owner.ID, "12.50", "Food", "2024-01-15")
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if expense.ID == 0 {
			t.Error("Expected expense ID to be generated")
		}
		if expense.Version != 1 {
			t.Errorf("Version mismatch: got %d, want 1", expense.Version)
		}
		if expense.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}

		got, err := store.GetExpense(ctx, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if !got.Amount.Equal(expense.Amount) {
			t.Errorf("Amount mismatch: got %s, want %s", got.Amount, expense.Amount)
		}
		if got.Category != "Food" || got.Date.String() != "2024-01-15" || got.UserID != owner.ID {
			t.Errorf("Unexpected expense: %+v", got)
		}
	})

	t.Run("CreateExpenses stores all records", func(t *testing.T) {
		batch := []*models.Expense{
			newExpense(owner.ID, "3", "Coffee", "2024-02-01"),
			newExpense(owner.ID, "40.10", "Transport", "2024-02-02"),
		}
		if err := store.CreateExpenses(ctx, batch); err != nil {
			t.Fatalf("CreateExpenses failed: %v", err)
		}
		for _, e := range batch {
			if e.ID == 0 {
				t.Errorf("Expected ID for %s", e.Category)
			}
		}
	})

	t.Run("CreateExpenses is atomic", func(t *testing.T) {
		before, _ := store.ListExpensesByUser(ctx, owner.ID)
		batch := []*models.Expense{
			newExpense(owner.ID, "1", "Ok", "2024-02-03"),
			newExpense(424242, "1", "Orphan", "2024-02-03"),
		}
		if err := store.CreateExpenses(ctx, batch); err == nil {
			t.Fatal("Expected foreign key failure")
		}
		after, _ := store.ListExpensesByUser(ctx, owner.ID)
		if len(after) != len(before) {
			t.Errorf("Expected rollback: had %d expenses, now %d", len(before), len(after))
		}
	})

	t.Run("ListExpensesByUser orders newest first", func(t *testing.T) {
		expenses, err := store.ListExpensesByUser(ctx, owner.ID)
		if err != nil {
			t.Fatalf("ListExpensesByUser failed: %v", err)
		}
		if len(expenses) != 3 {
			t.Fatalf("Expected 3 expenses, got %d", len(expenses))
		}
		if expenses[0].Date.String() != "2024-02-02" {
			t.Errorf("Expected newest first, got %s", expenses[0].Date)
		}
	})

	t.Run("ListExpensesByUser returns empty slice for user without expenses", func(t *testing.T) {
		expenses, err := store.ListExpensesByUser(ctx, 777)
		if err != nil {
			t.Fatalf("ListExpensesByUser failed: %v", err)
		}
		if expenses == nil || len(expenses) != 0 {
			t.Errorf("Expected empty slice, got %v", expenses)
		}
	})

	t.Run("UpdateExpense bumps version and rejects stale writes", func(t *testing.T) {
		expense := newExpense(owner.ID, "10", "Books", "2024-03-01")
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}

		stale := *expense

		expense.Amount = decimal.RequireFromString("11")
		if err := store.UpdateExpense(ctx, expense); err != nil {
			t.Fatalf("UpdateExpense failed: %v", err)
		}
		if expense.Version != 2 {
			t.Errorf("Version mismatch: got %d, want 2", expense.Version)
		}

		stale.Category = "Lost update"
		if err := store.UpdateExpense(ctx, &stale); !errors.Is(err, storage.ErrVersionConflict) {
			t.Errorf("Expected ErrVersionConflict, got %v", err)
		}

		got, _ := store.GetExpense(ctx, expense.ID)
		if got.Category != "Books" || !got.Amount.Equal(decimal.NewFromInt(11)) {
			t.Errorf("Unexpected stored expense: %+v", got)
		}
	})

	t.Run("UpdateExpense on missing expense returns ErrNotFound", func(t *testing.T) {
		missing := newExpense(owner.ID, "1", "x", "2024-01-01")
		missing.ID = 9999
		missing.Version = 1
		if err := store.UpdateExpense(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteExpense twice returns ErrNotFound the second time", func(t *testing.T) {
		expense := newExpense(owner.ID, "5", "Snacks", time.Now().Format(models.DateLayout))
		if err := store.CreateExpense(ctx, expense); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if err := store.DeleteExpense(ctx, expense.ID); err != nil {
			t.Fatalf("first DeleteExpense failed: %v", err)
		}
		if err := store.DeleteExpense(ctx, expense.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}

func TestNewReopensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	store, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	user := models.NewUser("carol@example.com", "carol", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	store.Close()

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.GetUserByEmail(context.Background(), "carol@example.com"); err != nil {
		t.Errorf("Expected user to survive reopen: %v", err)
	}
}
