package aiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/centsai/internal/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*Client, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	m := metrics.NewUnregistered()
	return New(srv.URL, timeout, slog.New(slog.NewTextHandler(io.Discard, nil)), m), m
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"array", `[{"amount":12.5,"category":"food","transactionDate":"2024-06-01"},{"amount":0,"category":"misc"}]`},
		{"string", `"[{\"amount\":12.5,\"category\":\"food\",\"transactionDate\":\"2024-06-01\"},{\"amount\":0,\"category\":\"misc\"}]"`},
		{"fenced", "\"```json\\n[{\\\"amount\\\":12.5,\\\"category\\\":\\\"food\\\",\\\"transactionDate\\\":\\\"2024-06-01\\\"},{\\\"amount\\\":0,\\\"category\\\":\\\"misc\\\"}]\\n```\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPrompt string
			client, m := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				var req map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				gotPrompt = req["prompt"]
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tt.body)
			}, time.Second)

			expenses, err := client.Extract(context.Background(), "lunch 12.50")
			require.NoError(t, err)
			assert.Equal(t, "lunch 12.50", gotPrompt)
			require.Len(t, expenses, 2)

			require.NotNil(t, expenses[0].Amount)
			assert.Equal(t, "12.5", expenses[0].Amount.String())
			assert.Equal(t, "food", expenses[0].Category)
			require.NotNil(t, expenses[0].TransactionDate)
			assert.Equal(t, "2024-06-01", expenses[0].TransactionDate.String())
			assert.Nil(t, expenses[1].TransactionDate)

			assert.Equal(t, 1.0, testutil.ToFloat64(m.AIRequests.WithLabelValues(metrics.OutcomeSuccess)))
		})
	}
}

func TestExtractMissingAmount(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"category":"food"}]`)
	}, time.Second)

	expenses, err := client.Extract(context.Background(), "something")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Nil(t, expenses[0].Amount)
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "<html>oops</html>")
		}},
		{"object instead of array", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"amount":1}`)
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			io.WriteString(w, `[]`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, m := newTestClient(t, tt.handler, 50*time.Millisecond)

			_, err := client.Extract(context.Background(), "prompt")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnavailable))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.AIRequests.WithLabelValues(metrics.OutcomeError)))
		})
	}
}

func TestExtractUnreachable(t *testing.T) {
	client := New("http://127.0.0.1:1", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	_, err := client.Extract(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDecodeExpensesEmpty(t *testing.T) {
	expenses, err := decodeExpenses([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, expenses)
	assert.Empty(t, expenses)
}
