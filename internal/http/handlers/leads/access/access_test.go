package access_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/advileads/advileads/internal/http/handlers/leads/access"
)

func TestAccessHandler(t *testing.T) {
	w := httptest.NewRecorder()
	access.New(slog.New(slog.NewTextHandler(io.Discard, nil))).
		ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/leads/access", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","data":{"access":true}}`, w.Body.String())
}
