package status_test

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advileads/advileads/internal/http/handlers/trial/status"
	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/storage/repository"
	"github.com/advileads/advileads/internal/trial"
)

type mockUsers struct {
	GetFunc func(ctx context.Context, userUID string) (*models.User, error)
}

func (m *mockUsers) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	return m.GetFunc(ctx, userUID)
}

func newRequest(uid string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/trial", nil)
	if uid == "" {
		return req
	}
	return req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, uid))
}

func TestStatusHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC)
	policy := trial.NewPolicy(trial.Options{Location: time.UTC}, func() time.Time { return now })
	start := now.AddDate(0, 0, -12)

	t.Run("trial in progress", func(t *testing.T) {
		users := &mockUsers{GetFunc: func(_ context.Context, uid string) (*models.User, error) {
			require.Equal(t, "u1", uid)
			return &models.User{UID: uid, MembershipStatus: models.MembershipTrial, TrialStartDate: &start}, nil
		}}
		w := httptest.NewRecorder()
		status.New(log, users, policy).ServeHTTP(w, newRequest("u1"))

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data status.View `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, models.MembershipTrial, resp.Data.MembershipStatus)
		assert.Equal(t, 2, resp.Data.DaysLeft)
		assert.Equal(t, 12, resp.Data.TrialDay)
		assert.True(t, resp.Data.IsExpiringSoon)
		assert.False(t, resp.Data.RestrictAccess)
		assert.Equal(t, "expiring", resp.Data.Badge.Level)
		assert.Equal(t, "March 22, 2026", resp.Data.FormattedEndDate)
		assert.InDelta(t, 12.0/14.0*100, resp.Data.Progress, 0.01)
	})

	t.Run("user not found", func(t *testing.T) {
		users := &mockUsers{GetFunc: func(context.Context, string) (*models.User, error) {
			return nil, repository.ErrUserNotFound
		}}
		w := httptest.NewRecorder()
		status.New(log, users, policy).ServeHTTP(w, newRequest("u1"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("repository failure", func(t *testing.T) {
		users := &mockUsers{GetFunc: func(context.Context, string) (*models.User, error) {
			return nil, errors.New("db down")
		}}
		w := httptest.NewRecorder()
		status.New(log, users, policy).ServeHTTP(w, newRequest("u1"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("no user in context", func(t *testing.T) {
		w := httptest.NewRecorder()
		status.New(log, &mockUsers{}, policy).ServeHTTP(w, newRequest(""))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
