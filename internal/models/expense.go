package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are emitted as JSON numbers (12.5), not strings ("12.5").
	decimal.MarshalJSONWithoutQuotes = true
}

// Expense represents a single spending record owned by one user.
type Expense struct {
	// ID is the store-assigned identifier for the expense.
	ID int64

	// UserID is the owning user. An expense always has exactly one owner.
	UserID int64

	// Amount is the spent amount. Must be strictly positive to be persisted.
	Amount decimal.Decimal

	// Category is free text (e.g., "Food", "Transport").
	Category string

	// Date is the day the money was spent.
	Date Date

	// Version is incremented on every update and used for optimistic concurrency.
	Version int64

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// AmountScale is the number of decimal places an amount may carry.
const AmountScale = 2

// MaxAmount is the largest amount the stores can hold (NUMERIC(14,2)).
var MaxAmount = decimal.RequireFromString("999999999999.99")

// ValidAmount reports whether amount may be persisted: strictly positive,
// at most AmountScale decimal places and no larger than MaxAmount.
// Amounts are stored exactly as given, so anything finer than a cent is
// rejected rather than rounded.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() &&
		amount.Equal(amount.Truncate(AmountScale)) &&
		amount.LessThanOrEqual(MaxAmount)
}

// CapitalizeCategory upper-cases the first letter and lower-cases the rest.
func CapitalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return category
	}
	runes := []rune(strings.ToLower(category))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}
