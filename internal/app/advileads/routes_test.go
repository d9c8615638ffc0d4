package advileads

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/advileads/advileads/internal/http/middlewarectx"
	"github.com/advileads/advileads/internal/lib/jwt"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/notification"
	"github.com/advileads/advileads/internal/services/billing"
	"github.com/advileads/advileads/internal/services/trialwatch"
	"github.com/advileads/advileads/internal/storage/repository"
	"github.com/advileads/advileads/internal/trial"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (m *memUsers) UpsertUser(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[user.UID]; ok {
		existing.Email, existing.Name, existing.Role = user.Email, user.Name, user.Role
		m.users[user.UID] = existing
		return nil
	}
	if user.MembershipStatus == "" {
		user.MembershipStatus = models.MembershipTrial
	}
	m.users[user.UID] = user
	return nil
}

func (m *memUsers) GetUser(_ context.Context, userUID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userUID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

type fakeSessions struct {
	begun []string
	ended []string
}

func (f *fakeSessions) Begin(_ context.Context, userUID string) (trialwatch.Result, error) {
	f.begun = append(f.begun, userUID)
	return trialwatch.Result{State: trialwatch.StateIdle, Trial: true}, nil
}

func (f *fakeSessions) End(userUID string) {
	f.ended = append(f.ended, userUID)
}

type fakeBilling struct {
	calls int
}

func (f *fakeBilling) HandleWebhook(context.Context, []byte, string) (billing.Outcome, error) {
	f.calls++
	return billing.OutcomeIgnored, nil
}

type testEnv struct {
	router   http.Handler
	maker    *jwt.Maker
	users    *memUsers
	sessions *fakeSessions
	billing  *fakeBilling
	registry *notification.Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, time.April, 1, 10, 0, 0, 0, time.UTC)
	policy := trial.NewPolicy(trial.Options{Location: time.UTC}, func() time.Time { return now })

	env := &testEnv{
		maker:    jwt.NewJWTMaker("secret", time.Hour),
		users:    &memUsers{users: map[string]models.User{}},
		sessions: &fakeSessions{},
		billing:  &fakeBilling{},
		registry: notification.NewRegistry(notification.MemoryFactory(), "", 0, log, policy.Now),
	}
	env.router = NewRouter(log, Routes{
		Tokens:        env.maker,
		Users:         env.users,
		Sessions:      env.sessions,
		Notifications: env.registry,
		Policy:        policy,
		Billing:       env.billing,
		Limiter:       middlewarectx.NewRateLimiter(100, 100),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if role != "" {
		token, err := e.maker.GenerateToken("u1", role, "u1@example.com", "Dana")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicEndpoints(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/metrics", "", "").Code)

	w := env.do(t, http.MethodPost, "/api/v1/billing/webhook", "", `{}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, env.billing.calls)
}

func TestRouter_SwaggerDocs(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/docs/doc.json", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "Advileads API", doc.Info.Title)
	for _, path := range []string{"/api/v1/session", "/api/v1/trial", "/api/v1/notifications/{id}", "/health"} {
		assert.Contains(t, doc.Paths, path)
	}

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/docs/index.html", "", "").Code)
}

func TestRouter_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/trial", "/api/v1/notifications", "/api/v1/leads/access"} {
		assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, path, "", "").Code, path)
	}
}

func TestRouter_SessionLifecycle(t *testing.T) {
	env := newTestEnv(t)

	// до начала сессии записи нет
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/trial", "user", "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/v1/leads/access", "user", "").Code)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/session", "user", "").Code)
	assert.Equal(t, []string{"u1"}, env.sessions.begun)

	w := env.do(t, http.MethodGet, "/api/v1/trial", "user", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			DaysLeft int  `json:"days_left"`
			Restrict bool `json:"restrict_access"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 14, resp.Data.DaysLeft)
	assert.False(t, resp.Data.Restrict)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/leads/access", "user", "").Code)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/v1/session", "user", "").Code)
	assert.Equal(t, []string{"u1"}, env.sessions.ended)
}

func TestRouter_AdminCreateNotification(t *testing.T) {
	env := newTestEnv(t)
	body := `{"user_uid":"u2","type":"info","title":"Hi","message":"Welcome to the forum"}`

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/v1/notifications", "user", body).Code)
	assert.Empty(t, env.registry.For("u2").List(context.Background()))

	assert.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/notifications", "admin", body).Code)
	assert.Len(t, env.registry.For("u2").List(context.Background()), 1)
}

func TestRouter_NotificationFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	n, err := env.registry.For("u1").Add(ctx, notification.PlanActivated())
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/v1/notifications/unread", "user", "")
	assert.JSONEq(t, `{"status":"OK","data":{"unread_count":1}}`, w.Body.String())

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/notifications/"+n.ID+"/read", "user", "").Code)
	assert.Equal(t, 0, env.registry.For("u1").UnreadCount(ctx))

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/v1/notifications/"+n.ID, "user", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/v1/notifications/"+n.ID, "user", "").Code)

	_, err = env.registry.For("u1").Add(ctx, notification.PlanActivated())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/v1/notifications/read-all", "user", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/v1/notifications", "user", "").Code)
	assert.Empty(t, env.registry.For("u1").List(ctx))
}
