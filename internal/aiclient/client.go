// Package aiclient calls the external extraction service that turns free text
// into structured expenses.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/centsai/internal/metrics"
	"github.com/mmynk/centsai/internal/models"
)

// DefaultTimeout bounds a single extraction call.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of the reply is read.
const maxResponseBytes = 1 << 20

// ErrUnavailable wraps every transport, status and decoding failure.
var ErrUnavailable = errors.New("AI service unavailable")

var codeFence = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// ExtractedExpense is one record returned by the extraction service.
// Amount and TransactionDate are nil when the service omitted them.
type ExtractedExpense struct {
	Amount          *decimal.Decimal `json:"amount"`
	Category        string           `json:"category"`
	TransactionDate *models.Date     `json:"transactionDate"`
}

type extractRequest struct {
	Prompt string `json:"prompt"`
}

// Client talks to the extraction service.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// New creates a client posting to url. A zero timeout selects DefaultTimeout.
func New(url string, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    m,
	}
}

// Extract sends prompt to the service and decodes its reply.
func (c *Client) Extract(ctx context.Context, prompt string) ([]ExtractedExpense, error) {
	start := time.Now()
	expenses, err := c.extract(ctx, prompt)

	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
		c.logger.ErrorContext(ctx, "AI extraction failed", "error", err, "duration", time.Since(start))
	} else {
		c.logger.InfoContext(ctx, "AI extraction finished", "records", len(expenses), "duration", time.Since(start))
	}
	if c.metrics != nil {
		c.metrics.AIRequests.WithLabelValues(outcome).Inc()
		c.metrics.AIDuration.Observe(time.Since(start).Seconds())
	}
	return expenses, err
}

func (c *Client) extract(ctx context.Context, prompt string) ([]ExtractedExpense, error) {
	payload, err := json.Marshal(extractRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	expenses, err := decodeExpenses(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return expenses, nil
}

// decodeExpenses accepts a JSON array, or a JSON string holding one,
// optionally wrapped in a markdown code fence.
func decodeExpenses(body []byte) ([]ExtractedExpense, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, fmt.Errorf("decode string reply: %w", err)
		}
		trimmed = []byte(cleanJSON(inner))
	} else {
		trimmed = []byte(cleanJSON(string(trimmed)))
	}

	var expenses []ExtractedExpense
	if err := json.Unmarshal(trimmed, &expenses); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if expenses == nil {
		expenses = []ExtractedExpense{}
	}
	return expenses, nil
}

func cleanJSON(s string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(s, "$1"))
}
