package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/centsai/internal/aiclient"
	"github.com/mmynk/centsai/internal/apperror"
	"github.com/mmynk/centsai/internal/events"
	"github.com/mmynk/centsai/internal/metrics"
	"github.com/mmynk/centsai/internal/models"
	"github.com/mmynk/centsai/internal/storage"
)

// Extractor turns free text into candidate expenses.
type Extractor interface {
	Extract(ctx context.Context, prompt string) ([]aiclient.ExtractedExpense, error)
}

var _ Extractor = (*aiclient.Client)(nil)

// AIService forwards prompts to the extraction service and persists the results.
type AIService struct {
	extractor Extractor
	store     storage.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewAIService creates an AIService. publisher and m may be nil.
func NewAIService(extractor Extractor, store storage.Store, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *AIService {
	return &AIService{
		extractor: extractor,
		store:     store,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Extract returns what the service parsed from prompt without persisting anything.
func (s *AIService) Extract(ctx context.Context, prompt string) ([]aiclient.ExtractedExpense, error) {
	if _, err := RequireCaller(ctx); err != nil {
		return nil, err
	}
	return s.extract(ctx, prompt)
}

// SaveExtracted extracts expenses from prompt and stores the ones with a
// valid amount for userID. Returns BadRequest if none qualify.
func (s *AIService) SaveExtracted(ctx context.Context, userID int64, prompt string) ([]models.Expense, error) {
	s.logger.InfoContext(ctx, "Saving extracted expenses", "user_id", userID)

	if err := RequireUser(ctx, userID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperror.NewNotFound("user not found", err)
		}
		return nil, apperror.NewInternal("failed to load user", err)
	}

	extracted, err := s.extract(ctx, prompt)
	if err != nil {
		return nil, err
	}

	records := make([]*models.Expense, 0, len(extracted))
	for _, e := range extracted {
		if e.Amount == nil || !models.ValidAmount(*e.Amount) {
			continue
		}
		expense := &models.Expense{
			UserID:   userID,
			Amount:   *e.Amount,
			Category: models.CapitalizeCategory(e.Category),
			Date:     models.Today(),
		}
		if e.TransactionDate != nil && !e.TransactionDate.IsZero() {
			expense.Date = *e.TransactionDate
		}
		records = append(records, expense)
	}

	if len(records) == 0 {
		s.logger.InfoContext(ctx, "No valid expenses to save", "user_id", userID, "extracted", len(extracted))
		return nil, apperror.NewBadRequest("no expense with a valid amount found in prompt", nil)
	}

	if err := s.store.CreateExpenses(ctx, records); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save extracted expenses", "user_id", userID, "error", err)
		return nil, apperror.NewInternal("failed to save expenses", err)
	}

	saved := make([]models.Expense, 0, len(records))
	for _, r := range records {
		saved = append(saved, *r)
		publish(ctx, s.publisher, s.logger, events.ExpenseCreated, r)
	}
	if s.metrics != nil {
		s.metrics.ExpensesCreated.WithLabelValues(metrics.SourceAI).Add(float64(len(saved)))
	}

	s.logger.InfoContext(ctx, "Saved extracted expenses",
		"user_id", userID,
		"saved", len(saved),
		"skipped", len(extracted)-len(saved),
	)
	return saved, nil
}

func (s *AIService) extract(ctx context.Context, prompt string) ([]aiclient.ExtractedExpense, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apperror.NewBadRequest("prompt is required", nil)
	}
	extracted, err := s.extractor.Extract(ctx, prompt)
	if err != nil {
		return nil, apperror.NewServiceUnavailable("AI service is not available, try again later", err)
	}
	return extracted, nil
}
