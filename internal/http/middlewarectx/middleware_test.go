package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/lib/jwt"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/storage/repository"
	"github.com/advileads/advileads/internal/trial"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func withUser(r *http.Request, uid, role string) *http.Request {
	ctx := context.WithValue(r.Context(), middlewarectx.UserUID, uid)
	ctx = context.WithValue(ctx, middlewarectx.Role, role)
	return r.WithContext(ctx)
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTMiddleware(t *testing.T) {
	maker := jwt.NewJWTMaker("secret", time.Minute)
	valid, err := maker.GenerateToken("u1", "admin", "u1@example.com", "Dana")
	require.NoError(t, err)
	foreign, err := jwt.NewJWTMaker("other", time.Minute).GenerateToken("u1", "admin", "", "")
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		wantStatusCode int
		wantCalled     bool
	}{
		{name: "missing Authorization header", wantStatusCode: http.StatusUnauthorized},
		{name: "invalid prefix", authHeader: "Basic " + valid, wantStatusCode: http.StatusUnauthorized},
		{name: "foreign signature", authHeader: "Bearer " + foreign, wantStatusCode: http.StatusUnauthorized},
		{name: "valid token", authHeader: "Bearer " + valid, wantStatusCode: http.StatusOK, wantCalled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				uid, ok := middlewarectx.UserUIDFrom(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "u1", uid)
				assert.Equal(t, "admin", r.Context().Value(middlewarectx.Role))
				claims, ok := middlewarectx.ClaimsFrom(r.Context())
				require.True(t, ok)
				assert.Equal(t, "Dana", claims.Name)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			middlewarectx.JWTMiddleware(maker, newNoopLogger())(next).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		role       string
		wantStatus int
	}{
		{role: "admin", wantStatus: http.StatusOK},
		{role: "user", wantStatus: http.StatusForbidden},
		{role: "", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			called := false
			req := withUser(httptest.NewRequest(http.MethodPost, "/", nil), "u1", tt.role)
			w := httptest.NewRecorder()
			middlewarectx.RequireAdmin(newNoopLogger())(okHandler(&called)).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := middlewarectx.NewRateLimiter(0.001, 2)
	called := false
	h := middlewarectx.RateLimitMiddleware(limiter, newNoopLogger())(okHandler(&called))

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, withUser(httptest.NewRequest(http.MethodGet, "/", nil), "u1", "user"))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// другой пользователь имеет свой лимит
	w := httptest.NewRecorder()
	h.ServeHTTP(w, withUser(httptest.NewRequest(http.MethodGet, "/", nil), "u2", "user"))
	assert.Equal(t, http.StatusOK, w.Code)

	// без аутентификации ключ — адрес клиента
	for _, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func TestTrialAccessMiddleware(t *testing.T) {
	now := time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)
	policy := trial.NewPolicy(trial.Options{Location: time.UTC}, func() time.Time { return now })
	fresh := now.AddDate(0, 0, -3)
	stale := now.AddDate(0, 0, -15)

	tests := []struct {
		name       string
		user       *models.User
		err        error
		wantStatus int
	}{
		{
			name:       "trial in progress",
			user:       &models.User{UID: "u1", MembershipStatus: models.MembershipTrial, TrialStartDate: &fresh},
			wantStatus: http.StatusOK,
		},
		{
			name:       "trial over",
			user:       &models.User{UID: "u1", MembershipStatus: models.MembershipTrial, TrialStartDate: &stale},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "paid member",
			user:       &models.User{UID: "u1", MembershipStatus: models.MembershipActive, TrialStartDate: &stale},
			wantStatus: http.StatusOK,
		},
		{
			name:       "expired member",
			user:       &models.User{UID: "u1", MembershipStatus: models.MembershipExpired},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unknown user",
			err:        repository.ErrUserNotFound,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "repository failure",
			err:        errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUsers)
			if tt.err != nil {
				users.On("GetUser", mock.Anything, "u1").Return(nil, tt.err)
			} else {
				users.On("GetUser", mock.Anything, "u1").Return(tt.user, nil)
			}

			called := false
			h := middlewarectx.TrialAccessMiddleware(newNoopLogger(), users, policy)(okHandler(&called))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, withUser(httptest.NewRequest(http.MethodGet, "/", nil), "u1", "user"))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
			users.AssertExpectations(t)
		})
	}
}

func TestTrialAccessMiddleware_NoUser(t *testing.T) {
	called := false
	h := middlewarectx.TrialAccessMiddleware(newNoopLogger(), new(MockUsers), trial.NewPolicy(trial.Options{}, nil))(okHandler(&called))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}
