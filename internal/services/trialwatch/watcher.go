// Package trialwatch связывает политику пробного периода с хранилищем
// уведомлений: на каждой смене состояния авторизации и по таймеру
// проверяет пользователя и добавляет приветствие или уведомление о триале.
package trialwatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/advileads/advileads/internal/lib/keylock"
	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/metrics"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/notification"
	"github.com/advileads/advileads/internal/rabbitmq"
	"github.com/advileads/advileads/internal/trial"
)

// welcomeWindow возраст триала, в пределах которого показывается приветствие.
const welcomeWindow = 24 * time.Hour

// EventTrialWarning имя маркетингового события об уведомлении о триале.
const EventTrialWarning = "trial_warning"

// UserRepository источник актуальной записи пользователя.
type UserRepository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateLastTrialNotification(ctx context.Context, userUID string, at time.Time) error
	MarkWelcomeNotified(ctx context.Context, userUID string, at time.Time) error
}

// Stores выдает хранилище уведомлений пользователя.
type Stores interface {
	For(userUID string) *notification.Store
}

// EventPublisher отправляет событие во внешнюю маркетинговую автоматизацию.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, message any) error
}

// State состояние проверки.
type State string

const (
	StateIdle     State = "idle"
	StateChecking State = "checking"
	StateNotified State = "notified"
)

// Result итог одной проверки.
type Result struct {
	State   State `json:"state"`
	Welcome bool  `json:"welcome"`
	Trial   bool  `json:"trial"`
}

type session struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Watcher владеет периодическими проверками активных сессий.
type Watcher struct {
	repo      UserRepository
	stores    Stores
	publisher EventPublisher
	policy    *trial.Policy
	interval  time.Duration
	log       *slog.Logger

	// expirySwept истекшие триалы уведомляет крон истечения.
	expirySwept bool

	root     context.Context
	stop     context.CancelFunc
	mu       sync.Mutex
	sessions map[string]*session
	checks   *keylock.Striped
}

// Option настройка Watcher.
type Option func(*Watcher)

// WithExpirySweep сообщает, что об истечении триала предупреждает крон
// истечения, и Watcher не добавляет свое уведомление после окончания триала.
func WithExpirySweep() Option {
	return func(w *Watcher) {
		w.expirySwept = true
	}
}

// New создает Watcher. publisher может быть nil, тогда события не публикуются.
func New(repo UserRepository, stores Stores, publisher EventPublisher,
	policy *trial.Policy, interval time.Duration, log *slog.Logger, opts ...Option) *Watcher {
	if interval <= 0 {
		interval = time.Hour
	}
	root, stop := context.WithCancel(context.Background())
	w := &Watcher{
		repo:      repo,
		stores:    stores,
		publisher: publisher,
		policy:    policy,
		interval:  interval,
		log:       log,
		root:      root,
		stop:      stop,
		sessions:  make(map[string]*session),
		checks:    keylock.New(keylock.DefaultStripes),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Begin начинает сессию пользователя: проверка выполняется сразу,
// затем каждые interval до End или Shutdown. Повторный Begin
// перезапускает сессию. Если первая проверка не удалась, сессии
// пользователя нет.
func (w *Watcher) Begin(ctx context.Context, userUID string) (Result, error) {
	const op = "trialwatch.Begin"
	log := w.log.With(sl.Op(op), sl.User(userUID))

	if err := w.root.Err(); err != nil {
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}

	res, err := w.Check(ctx, userUID)
	if err != nil {
		w.End(userUID)
		return res, fmt.Errorf("%s: %w", op, err)
	}

	w.mu.Lock()
	if err := w.root.Err(); err != nil {
		w.mu.Unlock()
		return Result{}, fmt.Errorf("%s: %w", op, err)
	}
	if prev, ok := w.sessions[userUID]; ok {
		prev.cancel()
	}
	sctx, cancel := context.WithCancel(w.root)
	s := &session{cancel: cancel, done: make(chan struct{})}
	w.sessions[userUID] = s
	w.mu.Unlock()

	metrics.TrialSessions.Inc()
	go w.loop(sctx, userUID, s)
	log.Info("trial watcher started")

	return res, nil
}

// End завершает сессию: дальнейших проверок не будет.
func (w *Watcher) End(userUID string) {
	w.mu.Lock()
	s, ok := w.sessions[userUID]
	if ok {
		delete(w.sessions, userUID)
	}
	w.mu.Unlock()

	if ok {
		s.cancel()
		<-s.done
		w.log.Info("trial watcher stopped", sl.User(userUID))
	}
}

// Active сообщает, есть ли у пользователя работающая сессия.
func (w *Watcher) Active(userUID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.sessions[userUID]
	return ok
}

// Shutdown останавливает все сессии и ждет завершения их горутин.
func (w *Watcher) Shutdown() {
	w.mu.Lock()
	w.stop()
	sessions := w.sessions
	w.sessions = make(map[string]*session)
	w.mu.Unlock()

	for _, s := range sessions {
		<-s.done
	}
	w.log.Info("trial watchers stopped", slog.Int("count", len(sessions)))
}

func (w *Watcher) loop(ctx context.Context, userUID string, s *session) {
	defer close(s.done)
	defer metrics.TrialSessions.Dec()
	defer func() {
		w.mu.Lock()
		if w.sessions[userUID] == s {
			delete(w.sessions, userUID)
		}
		w.mu.Unlock()
	}()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.Check(ctx, userUID); err != nil {
				w.log.Error("scheduled trial check failed", sl.User(userUID), sl.Err(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Check перечитывает пользователя и при необходимости добавляет
// приветствие и уведомление о триале. Проверки одного пользователя
// не пересекаются. Уведомление, отметку о котором не удалось сохранить
// в записи пользователя, Check удаляет из списка.
func (w *Watcher) Check(ctx context.Context, userUID string) (Result, error) {
	const op = "trialwatch.Check"
	log := w.log.With(sl.Op(op), sl.User(userUID))

	mu := w.checks.For(userUID)
	mu.Lock()
	defer mu.Unlock()

	res := Result{State: StateChecking}
	user, err := w.repo.GetUser(ctx, userUID)
	if err != nil {
		metrics.TrialChecks.WithLabelValues(metrics.OutcomeError).Inc()
		return Result{State: StateIdle}, fmt.Errorf("%s: %w", op, err)
	}
	if user.MembershipStatus != models.MembershipTrial {
		metrics.TrialChecks.WithLabelValues(metrics.OutcomeIdle).Inc()
		return Result{State: StateIdle}, nil
	}

	now := w.policy.Now()
	store := w.stores.For(userUID)

	if w.shouldWelcome(user, now) {
		draft := notification.Welcome(user.Name, w.policy.Options().DurationDays)
		n, err := store.Add(ctx, draft)
		if err != nil {
			metrics.TrialChecks.WithLabelValues(metrics.OutcomeError).Inc()
			return Result{State: StateIdle}, fmt.Errorf("%s: add welcome: %w", op, err)
		}
		if err := w.repo.MarkWelcomeNotified(ctx, userUID, now); err != nil {
			w.rollback(ctx, store, n.ID, userUID)
			metrics.TrialChecks.WithLabelValues(metrics.OutcomeError).Inc()
			return Result{State: StateIdle}, fmt.Errorf("%s: mark welcome: %w", op, err)
		}
		res.Welcome = true
		log.Info("welcome notification added")
	}

	if w.shouldNotify(user) {
		status := w.policy.Status(user)
		message := w.policy.NotificationMessage(status.TrialDay)
		n, err := store.Add(ctx, notification.TrialUpdate(message))
		if err != nil {
			metrics.TrialChecks.WithLabelValues(metrics.OutcomeError).Inc()
			return Result{State: StateIdle}, fmt.Errorf("%s: add trial update: %w", op, err)
		}
		if err := w.repo.UpdateLastTrialNotification(ctx, userUID, now); err != nil {
			w.rollback(ctx, store, n.ID, userUID)
			metrics.TrialChecks.WithLabelValues(metrics.OutcomeError).Inc()
			return Result{State: StateIdle}, fmt.Errorf("%s: record notification: %w", op, err)
		}
		res.Trial = true
		log.Info("trial notification added",
			slog.Int("trial_day", status.TrialDay), slog.Int("days_left", status.DaysLeft))
		w.publish(ctx, user, status, message, now)
	}

	switch {
	case res.Trial:
		res.State = StateNotified
		metrics.TrialChecks.WithLabelValues(metrics.OutcomeNotified).Inc()
	case res.Welcome:
		res.State = StateNotified
		metrics.TrialChecks.WithLabelValues(metrics.OutcomeWelcome).Inc()
	default:
		res.State = StateIdle
		metrics.TrialChecks.WithLabelValues(metrics.OutcomeIdle).Inc()
	}
	return res, nil
}

func (w *Watcher) shouldNotify(user *models.User) bool {
	if !w.policy.ShouldSendNotification(user) {
		return false
	}
	return !w.expirySwept || !w.policy.Status(user).IsExpired
}

// rollback убирает уведомление, отметка о котором не сохранилась,
// чтобы следующая проверка не добавила его повторно.
func (w *Watcher) rollback(ctx context.Context, store *notification.Store, id, userUID string) {
	if err := store.Delete(ctx, id); err != nil {
		w.log.Error("failed to roll back notification", sl.User(userUID), slog.String("id", id), sl.Err(err))
	}
}

func (w *Watcher) shouldWelcome(user *models.User, now time.Time) bool {
	if user.WelcomeNotifiedAt != nil || user.TrialStartDate == nil {
		return false
	}
	age := now.Sub(*user.TrialStartDate)
	return age >= 0 && age < welcomeWindow
}

// publish ошибки публикации не прерывают проверку: уведомление уже сохранено.
func (w *Watcher) publish(ctx context.Context, user *models.User, status trial.Status, message string, now time.Time) {
	if w.publisher == nil {
		return
	}
	event := models.TrialEvent{
		Event:    EventTrialWarning,
		UserUID:  user.UID,
		Email:    user.Email,
		Name:     user.Name,
		DaysLeft: status.DaysLeft,
		TrialDay: status.TrialDay,
		Message:  message,
		SentAt:   now,
	}
	if err := w.publisher.Publish(ctx, rabbitmq.ExchangeMarketing, rabbitmq.RoutingTrialWarning, event); err != nil {
		w.log.Warn("failed to publish trial event", sl.User(user.UID), sl.Err(err))
	}
}
