package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/advileads/advileads/internal/migrations"
	"github.com/advileads/advileads/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, CheckDatabaseReady(storage))

	return storage
}

func createTrialUser(t *testing.T, s *Storage, start time.Time) string {
	t.Helper()
	uid := uuid.NewString()
	require.NoError(t, s.UpsertUser(context.Background(), models.User{
		UID:            uid,
		Email:          uid + "@example.com",
		Name:           "Test User",
		TrialStartDate: &start,
	}))
	return uid
}

func TestStorage_Users(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("upsert and get", func(t *testing.T) {
		uid := createTrialUser(t, storage, start)

		u, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, uid, u.UID)
		assert.Equal(t, "user", u.Role)
		assert.Equal(t, models.MembershipTrial, u.MembershipStatus)
		require.NotNil(t, u.TrialStartDate)
		assert.True(t, start.Equal(*u.TrialStartDate))
		assert.Nil(t, u.LastTrialNotification)
		assert.Nil(t, u.WelcomeNotifiedAt)
	})

	t.Run("upsert keeps trial start", func(t *testing.T) {
		uid := createTrialUser(t, storage, start)
		later := start.AddDate(0, 0, 5)
		require.NoError(t, storage.UpsertUser(ctx, models.User{
			UID: uid, Email: "new@example.com", Name: "Renamed", TrialStartDate: &later,
		}))

		u, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", u.Name)
		assert.True(t, start.Equal(*u.TrialStartDate))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := storage.GetUser(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrUserNotFound)

		err = storage.UpdateLastTrialNotification(ctx, uuid.NewString(), start)
		assert.ErrorIs(t, err, ErrUserNotFound)

		err = storage.SetMembershipStatus(ctx, uuid.NewString(), models.MembershipActive)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("notification timestamps", func(t *testing.T) {
		uid := createTrialUser(t, storage, start)
		at := start.Add(36 * time.Hour)

		require.NoError(t, storage.UpdateLastTrialNotification(ctx, uid, at))
		require.NoError(t, storage.MarkWelcomeNotified(ctx, uid, start))

		u, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		require.NotNil(t, u.LastTrialNotification)
		require.NotNil(t, u.WelcomeNotifiedAt)
		assert.True(t, at.Equal(*u.LastTrialNotification))
		assert.True(t, start.Equal(*u.WelcomeNotifiedAt))
	})
}

func TestStorage_SetMembershipStatus(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	start := time.Now().UTC()

	tests := []struct {
		name    string
		steps   []models.MembershipStatus
		want    models.MembershipStatus
		wantErr error
	}{
		{
			name:  "trial to active",
			steps: []models.MembershipStatus{models.MembershipActive},
			want:  models.MembershipActive,
		},
		{
			name:  "active twice is a no-op",
			steps: []models.MembershipStatus{models.MembershipActive, models.MembershipActive},
			want:  models.MembershipActive,
		},
		{
			name:  "active to expired",
			steps: []models.MembershipStatus{models.MembershipActive, models.MembershipExpired},
			want:  models.MembershipExpired,
		},
		{
			name:    "expired to active rejected",
			steps:   []models.MembershipStatus{models.MembershipExpired, models.MembershipActive},
			want:    models.MembershipExpired,
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "active back to trial rejected",
			steps:   []models.MembershipStatus{models.MembershipActive, models.MembershipTrial},
			want:    models.MembershipActive,
			wantErr: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uid := createTrialUser(t, storage, start)

			var err error
			for _, step := range tt.steps {
				err = storage.SetMembershipStatus(ctx, uid, step)
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			u, err := storage.GetUser(ctx, uid)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u.MembershipStatus)
		})
	}
}

func TestStorage_ExpireTrials(t *testing.T) {
	storage := setupTestDatabase(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cutoff := now.AddDate(0, 0, -14)

	stale := createTrialUser(t, storage, now.AddDate(0, 0, -20))
	fresh := createTrialUser(t, storage, now.AddDate(0, 0, -3))
	paid := createTrialUser(t, storage, now.AddDate(0, 0, -30))
	require.NoError(t, storage.SetMembershipStatus(ctx, paid, models.MembershipActive))

	expired, err := storage.ExpireTrials(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, []string{stale}, expired)

	again, err := storage.ExpireTrials(ctx, cutoff)
	require.NoError(t, err)
	assert.Empty(t, again)

	for uid, want := range map[string]models.MembershipStatus{
		stale: models.MembershipExpired,
		fresh: models.MembershipTrial,
		paid:  models.MembershipActive,
	} {
		u, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, want, u.MembershipStatus, uid)
	}
}

func TestStorage_CancelledContext(t *testing.T) {
	s := &Storage{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.ExpireTrials(ctx, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.SetMembershipStatus(ctx, "u1", models.MembershipActive), context.Canceled)
	assert.ErrorIs(t, s.MarkWelcomeNotified(ctx, "u1", time.Now()), context.Canceled)
	assert.ErrorIs(t, s.UpsertUser(ctx, models.User{UID: "u1"}), context.Canceled)
}
