package api

import (
	"log/slog"
	"net/http"

	"github.com/mmynk/centsai/internal/models"
	"github.com/mmynk/centsai/internal/service"
)

// Handlers adapts the services to HTTP. Routes addressing a user check the
// caller against the path before the body is read, so identity failures
// take precedence over malformed input.
type Handlers struct {
	auth         *service.AuthService
	transactions *service.TransactionService
	ai           *service.AIService
	logger       *slog.Logger
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(auth *service.AuthService, transactions *service.TransactionService, ai *service.AIService, logger *slog.Logger) *Handlers {
	return &Handlers{
		auth:         auth,
		transactions: transactions,
		ai:           ai,
		logger:       logger,
	}
}

// HandleRegister creates an account. 201 on success, 409 for a taken email.
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Username)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, newAuthResponse(res))
	}
}

// HandleLogin exchanges credentials for a token.
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		res, err := h.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newAuthResponse(res))
	}
}

// HandleMe returns the authenticated account.
func (h *Handlers) HandleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.auth.CurrentUser(r.Context())
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, userResponse{UserID: user.ID, Email: user.Email, Username: user.Username})
	}
}

func (h *Handlers) HandleAddTransaction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathID(r, "userId")
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if err := service.RequireUser(r.Context(), userID); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		var req transactionRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		expense, err := h.transactions.AddTransaction(r.Context(), userID, req.input())
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, transactionResponse{
			UserID:   userID,
			Expenses: toExpenseDTOs([]models.Expense{*expense}),
		})
	}
}

func (h *Handlers) HandleListTransactions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathID(r, "userId")
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if err := service.RequireUser(r.Context(), userID); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		expenses, err := h.transactions.ListTransactions(r.Context(), userID)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, userTransactionsResponse{
			UserID:      userID,
			AllExpenses: toExpenseDTOs(expenses),
		})
	}
}

// HandleUpdateTransaction applies a partial update. Omitted fields are kept.
func (h *Handlers) HandleUpdateTransaction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, transactionID, err := transactionPath(r)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if err := service.RequireUser(r.Context(), userID); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		var req transactionRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		if _, err := h.transactions.UpdateTransaction(r.Context(), userID, transactionID, req.input()); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Transaction updated successfully"})
	}
}

func (h *Handlers) HandleDeleteTransaction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, transactionID, err := transactionPath(r)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if err := service.RequireUser(r.Context(), userID); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		if err := h.transactions.DeleteTransaction(r.Context(), userID, transactionID); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Transaction deleted successfully"})
	}
}

// HandleSaveExtracted extracts expenses from a prompt and stores them.
func (h *Handlers) HandleSaveExtracted() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathID(r, "userId")
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if err := service.RequireUser(r.Context(), userID); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		var req promptRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		saved, err := h.ai.SaveExtracted(r.Context(), userID, req.Prompt)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, transactionResponse{
			UserID:   userID,
			Expenses: toExpenseDTOs(saved),
		})
	}
}

// HandleExtract returns the parsed expenses without storing them.
func (h *Handlers) HandleExtract() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := service.RequireCaller(r.Context())
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		var req promptRequest
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeError(w, r, h.logger, err)
			return
		}

		extracted, err := h.ai.Extract(r.Context(), req.Prompt)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, extractResponse{UserID: userID, Expenses: extracted})
	}
}

func transactionPath(r *http.Request) (userID, transactionID int64, err error) {
	if userID, err = pathID(r, "userId"); err != nil {
		return 0, 0, err
	}
	if transactionID, err = pathID(r, "transactionId"); err != nil {
		return 0, 0, err
	}
	return userID, transactionID, nil
}
