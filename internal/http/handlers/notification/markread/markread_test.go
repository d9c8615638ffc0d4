package markread_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advileads/advileads/internal/http/handlers/notification/markread"
	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/notification"
)

func newRequest(uid, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+id+"/read", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middlewarectx.UserUID, uid)
	return req.WithContext(ctx)
}

func TestMarkReadHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	reg := notification.NewRegistry(notification.MemoryFactory(), "", 0, log, nil)
	n, err := reg.For("u1").Add(ctx, notification.PlanActivated())
	require.NoError(t, err)

	t.Run("marks as read", func(t *testing.T) {
		w := httptest.NewRecorder()
		markread.New(log, reg).ServeHTTP(w, newRequest("u1", n.ID))

		assert.Equal(t, http.StatusOK, w.Code)
		got, err := reg.For("u1").Get(ctx, n.ID)
		require.NoError(t, err)
		assert.True(t, got.Read)
		assert.Equal(t, 0, reg.For("u1").UnreadCount(ctx))
	})

	t.Run("repeat is ok", func(t *testing.T) {
		w := httptest.NewRecorder()
		markread.New(log, reg).ServeHTTP(w, newRequest("u1", n.ID))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := httptest.NewRecorder()
		markread.New(log, reg).ServeHTTP(w, newRequest("u1", "missing"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("foreign notification", func(t *testing.T) {
		w := httptest.NewRecorder()
		markread.New(log, reg).ServeHTTP(w, newRequest("u2", n.ID))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
