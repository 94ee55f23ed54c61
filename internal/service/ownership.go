package service

import (
	"context"
	"log/slog"

	"github.com/mmynk/centsai/internal/apperror"
	"github.com/mmynk/centsai/internal/auth"
	"github.com/mmynk/centsai/internal/events"
	"github.com/mmynk/centsai/internal/middleware"
	"github.com/mmynk/centsai/internal/models"
)

// RequireCaller returns the authenticated user ID, or Unauthenticated.
func RequireCaller(ctx context.Context) (int64, error) {
	callerID, ok := middleware.GetUserID(ctx)
	if !ok {
		return 0, apperror.NewUnauthenticated(auth.ErrMissingToken.Error())
	}
	return callerID, nil
}

// RequireUser resolves the caller and checks it is the addressed user.
// A mismatch is Forbidden whether or not the addressed user exists.
// Handlers call it before reading the request body.
func RequireUser(ctx context.Context, userID int64) error {
	callerID, err := RequireCaller(ctx)
	if err != nil {
		return err
	}
	if callerID != userID {
		return apperror.NewForbidden("you may only access your own transactions")
	}
	return nil
}

// publish sends an event for expense. Failures are logged and swallowed.
func publish(ctx context.Context, publisher events.Publisher, logger *slog.Logger, eventType string, expense *models.Expense) {
	if publisher == nil {
		return
	}
	event := events.NewExpenseEvent(eventType, expense)
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event",
			"type", eventType,
			"expense_id", expense.ID,
			"error", err,
		)
	}
}
