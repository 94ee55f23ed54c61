package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/centsai/internal/apperror"
	"github.com/mmynk/centsai/internal/events"
	"github.com/mmynk/centsai/internal/metrics"
	"github.com/mmynk/centsai/internal/models"
	"github.com/mmynk/centsai/internal/storage"
)

const invalidAmountMessage = "amount must be greater than zero with at most two decimal places"

// TransactionInput carries the fields of a create or patch request.
// Nil fields are absent from the request.
type TransactionInput struct {
	Amount   *decimal.Decimal
	Category *string
	Date     *models.Date
	// Version, when set on a patch, must match the stored version.
	Version *int64
}

// TransactionService implements ownership-checked expense CRUD.
type TransactionService struct {
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewTransactionService creates a TransactionService. publisher and m may be nil.
func NewTransactionService(store storage.Store, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// AddTransaction records one expense for userID.
func (s *TransactionService) AddTransaction(ctx context.Context, userID int64, in TransactionInput) (*models.Expense, error) {
	if err := RequireUser(ctx, userID); err != nil {
		return nil, err
	}
	if in.Amount == nil || !models.ValidAmount(*in.Amount) {
		return nil, apperror.NewBadRequest(invalidAmountMessage, nil)
	}
	if err := s.requireUserExists(ctx, userID); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID: userID,
		Amount: *in.Amount,
		Date:   models.Today(),
	}
	if in.Category != nil {
		expense.Category = strings.TrimSpace(*in.Category)
	}
	if in.Date != nil && !in.Date.IsZero() {
		expense.Date = *in.Date
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save expense", "user_id", userID, "error", err)
		return nil, apperror.NewInternal("failed to save expense", err)
	}

	s.logger.InfoContext(ctx, "Saved expense", "user_id", userID, "expense_id", expense.ID)
	if s.metrics != nil {
		s.metrics.ExpensesCreated.WithLabelValues(metrics.SourceManual).Inc()
	}
	publish(ctx, s.publisher, s.logger, events.ExpenseCreated, expense)
	return expense, nil
}

// ListTransactions returns every expense owned by userID, newest first.
func (s *TransactionService) ListTransactions(ctx context.Context, userID int64) ([]models.Expense, error) {
	if err := RequireUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.requireUserExists(ctx, userID); err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByUser(ctx, userID)
	if err != nil {
		return nil, apperror.NewInternal("failed to list expenses", err)
	}
	return expenses, nil
}

// UpdateTransaction applies the present fields of patch to the expense.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, transactionID int64, patch TransactionInput) (*models.Expense, error) {
	s.logger.InfoContext(ctx, "Updating transaction", "user_id", userID, "expense_id", transactionID)

	expense, err := s.ownedExpense(ctx, userID, transactionID)
	if err != nil {
		return nil, err
	}

	if patch.Version != nil && *patch.Version != expense.Version {
		return nil, apperror.NewConflict("transaction was modified, reload and retry", storage.ErrVersionConflict)
	}
	if patch.Amount != nil {
		if !models.ValidAmount(*patch.Amount) {
			return nil, apperror.NewBadRequest(invalidAmountMessage, nil)
		}
		expense.Amount = *patch.Amount
	}
	if patch.Category != nil {
		expense.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Date != nil && !patch.Date.IsZero() {
		expense.Date = *patch.Date
	}

	err = s.store.UpdateExpense(ctx, expense)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, apperror.NewNotFound("transaction not found", err)
	case errors.Is(err, storage.ErrVersionConflict):
		s.logger.WarnContext(ctx, "Concurrent update rejected", "expense_id", transactionID)
		return nil, apperror.NewConflict("transaction was modified, reload and retry", err)
	case err != nil:
		return nil, apperror.NewInternal("failed to update expense", err)
	}

	publish(ctx, s.publisher, s.logger, events.ExpenseUpdated, expense)
	return expense, nil
}

// DeleteTransaction removes the expense.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, transactionID int64) error {
	s.logger.InfoContext(ctx, "Deleting transaction", "user_id", userID, "expense_id", transactionID)

	expense, err := s.ownedExpense(ctx, userID, transactionID)
	if err != nil {
		return err
	}

	err = s.store.DeleteExpense(ctx, transactionID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperror.NewNotFound("transaction not found", err)
	}
	if err != nil {
		return apperror.NewInternal("failed to delete expense", err)
	}

	publish(ctx, s.publisher, s.logger, events.ExpenseDeleted, expense)
	return nil
}

// ownedExpense loads the expense after checking the caller, and checks the
// caller owns it.
func (s *TransactionService) ownedExpense(ctx context.Context, userID, transactionID int64) (*models.Expense, error) {
	if err := RequireUser(ctx, userID); err != nil {
		return nil, err
	}

	expense, err := s.store.GetExpense(ctx, transactionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NewNotFound("transaction not found", err)
	}
	if err != nil {
		return nil, apperror.NewInternal("failed to load expense", err)
	}

	if expense.UserID != userID {
		return nil, apperror.NewForbidden("you are not authorized to modify this transaction")
	}
	return expense, nil
}

func (s *TransactionService) requireUserExists(ctx context.Context, userID int64) error {
	_, err := s.store.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return apperror.NewNotFound("user not found", err)
	}
	if err != nil {
		return apperror.NewInternal("failed to load user", err)
	}
	return nil
}
