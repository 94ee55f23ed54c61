// Package events publishes expense lifecycle events for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/centsai/internal/models"
)

// Event types, also used as routing keys.
const (
	ExpenseCreated = "expense.created"
	ExpenseUpdated = "expense.updated"
	ExpenseDeleted = "expense.deleted"
)

// Event describes a change to one expense.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	ExpenseID  int64     `json:"expense_id"`
	Amount     string    `json:"amount,omitempty"`
	Category   string    `json:"category,omitempty"`
	Date       string    `json:"date,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewExpenseEvent builds an event of the given type for expense.
func NewExpenseEvent(eventType string, expense *models.Expense) Event {
	e := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     expense.UserID,
		ExpenseID:  expense.ID,
		OccurredAt: time.Now().UTC(),
	}
	if eventType != ExpenseDeleted {
		e.Amount = expense.Amount.String()
		e.Category = expense.Category
		e.Date = expense.Date.String()
	}
	return e
}

// ToJSON encodes the event as a message body.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
