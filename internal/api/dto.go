package api

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/centsai/internal/aiclient"
	"github.com/mmynk/centsai/internal/models"
	"github.com/mmynk/centsai/internal/service"
)

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username" validate:"required,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	UserID   int64  `json:"user_id"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

func newAuthResponse(res *service.AuthResult) authResponse {
	return authResponse{UserID: res.UserID, Token: res.Token, Username: res.Username}
}

type userResponse struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// transactionRequest is shared by create and patch. Omitted fields stay nil.
type transactionRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Category *string          `json:"category" validate:"omitempty,max=100"`
	Date     *models.Date     `json:"date"`
	Version  *int64           `json:"version"`
}

func (t transactionRequest) input() service.TransactionInput {
	return service.TransactionInput{
		Amount:   t.Amount,
		Category: t.Category,
		Date:     t.Date,
		Version:  t.Version,
	}
}

type promptRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type expenseDTO struct {
	ID              int64           `json:"id"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	TransactionDate models.Date     `json:"transactionDate"`
	Version         int64           `json:"version"`
}

func toExpenseDTOs(expenses []models.Expense) []expenseDTO {
	out := make([]expenseDTO, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, expenseDTO{
			ID:              e.ID,
			Amount:          e.Amount,
			Category:        e.Category,
			TransactionDate: e.Date,
			Version:         e.Version,
		})
	}
	return out
}

type transactionResponse struct {
	UserID   int64        `json:"userId"`
	Expenses []expenseDTO `json:"expenses"`
}

type userTransactionsResponse struct {
	UserID      int64        `json:"userId"`
	AllExpenses []expenseDTO `json:"allExpenses"`
}

type extractResponse struct {
	UserID   int64                       `json:"userId"`
	Expenses []aiclient.ExtractedExpense `json:"expenses"`
}

type messageResponse struct {
	Message string `json:"message"`
}
