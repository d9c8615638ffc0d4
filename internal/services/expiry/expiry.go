// Package expiry переводит истекшие пробные периоды в статус expired
// по расписанию cron и оставляет пользователю неудаляемое предупреждение.
package expiry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/metrics"
	"github.com/advileads/advileads/internal/notification"
	"github.com/advileads/advileads/internal/trial"
)

// DefaultSchedule раз в час, в начале часа.
const DefaultSchedule = "0 * * * *"

const sweepTimeout = 5 * time.Minute

// Repository переводит в expired триалы, начатые раньше startedBefore.
type Repository interface {
	ExpireTrials(ctx context.Context, startedBefore time.Time) ([]string, error)
}

// Stores выдает хранилище уведомлений пользователя.
type Stores interface {
	For(userUID string) *notification.Store
}

// Sweeper периодический обход истекших триалов.
type Sweeper struct {
	repo     Repository
	stores   Stores
	policy   *trial.Policy
	schedule string
	log      *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// New проверяет расписание и создает Sweeper. Пустое расписание
// заменяется на DefaultSchedule.
func New(repo Repository, stores Stores, policy *trial.Policy, schedule string, log *slog.Logger) (*Sweeper, error) {
	const op = "expiry.New"
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("%s: invalid schedule %q: %w", op, schedule, err)
	}
	return &Sweeper{
		repo:     repo,
		stores:   stores,
		policy:   policy,
		schedule: schedule,
		log:      log.With(slog.String("component", "expiry")),
	}, nil
}

// Start запускает cron. Запуски не накладываются: если предыдущий обход
// ещё идет, очередной пропускается.
func (s *Sweeper) Start(ctx context.Context) error {
	const op = "expiry.Start"
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("%s: already started", op)
	}

	logger := cronLogger{log: s.log}
	c := cron.New(
		cron.WithLocation(s.policy.Options().Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	_, err := c.AddFunc(s.schedule, func() {
		sctx, cancel := context.WithTimeout(ctx, sweepTimeout)
		defer cancel()
		if _, err := s.Sweep(sctx); err != nil {
			s.log.Error("expiry sweep failed", sl.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.Start()
	s.cron = c
	s.log.Info("expiry sweep scheduled", slog.String("schedule", s.schedule))
	return nil
}

// Stop останавливает cron и ждет завершения текущего обхода или ctx.
func (s *Sweeper) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("expiry sweep still running at shutdown")
	}
}

// Sweep переводит истекшие триалы в expired и добавляет каждому
// пользователю предупреждение. Возвращает число переведенных пользователей.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	const op = "expiry.Sweep"

	cutoff := s.policy.Now().Add(-s.policy.Duration())
	uids, err := s.repo.ExpireTrials(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	metrics.TrialsExpired.Add(float64(len(uids)))
	if len(uids) == 0 {
		s.log.Debug("no expired trials")
		return 0, nil
	}

	var errs []error
	for _, uid := range uids {
		if _, err := s.stores.For(uid).Add(ctx, notification.ExpirationWarning(trial.MessageExpired)); err != nil {
			s.log.Error("failed to add expiration warning", sl.User(uid), sl.Err(err))
			errs = append(errs, fmt.Errorf("%s: %w", uid, err))
		}
	}
	s.log.Info("expired trials", slog.Int("count", len(uids)))

	if err := errors.Join(errs...); err != nil {
		return len(uids), fmt.Errorf("%s: %w", op, err)
	}
	return len(uids), nil
}

// cronLogger направляет журнал cron в slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, sl.Err(err))...)
}
