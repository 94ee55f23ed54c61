package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mmynk/centsai/internal/metrics"
)

type fakeTokens map[string]int64

func (f fakeTokens) UserID(token string) (int64, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return 0, errors.New("invalid")
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func identityHandler(t *testing.T, wantID int64, wantOK bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserID(r.Context())
		assert.Equal(t, wantOK, ok)
		assert.Equal(t, wantID, id)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestOptionalAuth(t *testing.T) {
	tokens := fakeTokens{"good": 5}

	tests := []struct {
		name   string
		header string
		wantID int64
		wantOK bool
	}{
		{"valid token", "Bearer good", 5, true},
		{"lowercase scheme", "bearer good", 5, true},
		{"no header", "", 0, false},
		{"invalid token", "Bearer bad", 0, false},
		{"wrong scheme", "Basic good", 0, false},
		{"missing token", "Bearer", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			OptionalAuth(tokens, discard)(identityHandler(t, tt.wantID, tt.wantOK)).ServeHTTP(rec, req)

			// never rejects
			assert.Equal(t, http.StatusNoContent, rec.Code)
		})
	}
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	m := metrics.NewUnregistered()

	r := chi.NewRouter()
	r.Use(RequestLogger(discard, m))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/9", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/items/{id}", "404")))
}
