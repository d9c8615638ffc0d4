package health_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/advileads/advileads/internal/http/handlers/health"
)

func TestHealthHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name         string
		checks       map[string]health.Check
		wantStatus   int
		expectedBody string
	}{
		{
			name:         "no checks",
			wantStatus:   http.StatusOK,
			expectedBody: `{"status":"OK","data":{"status":"ok"}}`,
		},
		{
			name:         "all healthy",
			checks:       map[string]health.Check{"postgres": ok, "redis": ok},
			wantStatus:   http.StatusOK,
			expectedBody: `{"status":"OK","data":{"status":"ok","postgres":"ok","redis":"ok"}}`,
		},
		{
			name:         "redis down",
			checks:       map[string]health.Check{"postgres": ok, "redis": down},
			wantStatus:   http.StatusServiceUnavailable,
			expectedBody: `{"status":"Error","error":"service degraded","data":{"status":"degraded","postgres":"ok","redis":"unavailable"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			health.New(log, tt.checks).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
