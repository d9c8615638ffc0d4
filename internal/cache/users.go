package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/models"
)

// UserRepository источник записей пользователей.
type UserRepository interface {
	UpsertUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateLastTrialNotification(ctx context.Context, userUID string, at time.Time) error
	MarkWelcomeNotified(ctx context.Context, userUID string, at time.Time) error
	SetMembershipStatus(ctx context.Context, userUID string, status models.MembershipStatus) error
	ExpireTrials(ctx context.Context, startedBefore time.Time) ([]string, error)
}

// Users кэширует записи пользователей в redis. Любое изменение
// записи сбрасывает её из кэша; ошибки redis не ломают чтение.
type Users struct {
	repo  UserRepository
	cache *Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewUsers создает кэширующий репозиторий.
func NewUsers(repo UserRepository, cache *Cache, ttl time.Duration, log *slog.Logger) *Users {
	return &Users{repo: repo, cache: cache, ttl: ttl, log: log}
}

func userKey(uid string) string {
	return "user:" + uid
}

func (u *Users) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	var cached models.User
	found, err := u.cache.Get(ctx, userKey(userUID), &cached)
	if err != nil {
		u.log.Warn("user cache read failed", sl.User(userUID), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	user, err := u.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if err := u.cache.Set(ctx, userKey(userUID), user, u.ttl); err != nil {
		u.log.Warn("user cache write failed", sl.User(userUID), sl.Err(err))
	}
	return user, nil
}

func (u *Users) invalidate(ctx context.Context, userUID string) {
	if err := u.cache.Invalidate(ctx, userKey(userUID)); err != nil {
		u.log.Warn("user cache invalidate failed", sl.User(userUID), sl.Err(err))
	}
}

func (u *Users) UpsertUser(ctx context.Context, user models.User) error {
	defer u.invalidate(ctx, user.UID)
	return u.repo.UpsertUser(ctx, user)
}

func (u *Users) UpdateLastTrialNotification(ctx context.Context, userUID string, at time.Time) error {
	defer u.invalidate(ctx, userUID)
	return u.repo.UpdateLastTrialNotification(ctx, userUID, at)
}

func (u *Users) MarkWelcomeNotified(ctx context.Context, userUID string, at time.Time) error {
	defer u.invalidate(ctx, userUID)
	return u.repo.MarkWelcomeNotified(ctx, userUID, at)
}

func (u *Users) SetMembershipStatus(ctx context.Context, userUID string, status models.MembershipStatus) error {
	defer u.invalidate(ctx, userUID)
	return u.repo.SetMembershipStatus(ctx, userUID, status)
}

func (u *Users) ExpireTrials(ctx context.Context, startedBefore time.Time) ([]string, error) {
	uids, err := u.repo.ExpireTrials(ctx, startedBefore)
	for _, uid := range uids {
		u.invalidate(ctx, uid)
	}
	return uids, err
}
