// Package notification реализует хранилище пользовательских уведомлений.
//
// Весь список уведомлений пользователя сериализуется в JSON и хранится под
// одним ключом; каждая изменяющая операция перечитывает и целиком
// перезаписывает список. Ошибки чтения не пробрасываются: вместо списка
// возвращается пустой, а ошибка пишется в лог.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/metrics"
	"github.com/advileads/advileads/internal/models"
)

// DefaultMaxRetained сколько последних уведомлений хранится по умолчанию.
const DefaultMaxRetained = 50

var (
	// ErrNotFound уведомление с таким id отсутствует.
	ErrNotFound = errors.New("notification not found")
	// ErrInvalidType тип уведомления не входит в закрытый набор.
	ErrInvalidType = errors.New("invalid notification type")
)

// Storage хранилище сериализованного списка под одним ключом.
// Read возвращает nil, nil, если данных ещё нет.
type Storage interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}

// Draft данные нового уведомления; id, время создания и флаг прочтения
// проставляет Store.
type Draft struct {
	Type        models.NotificationType
	Title       string
	Message     string
	Action      *models.Action
	Dismissible bool
}

// Store упорядоченный (новые первыми) список уведомлений одного пользователя.
type Store struct {
	storage     Storage
	maxRetained int
	log         *slog.Logger
	now         func() time.Time

	// mu сериализует цикл чтение-изменение-запись внутри процесса.
	mu sync.Locker
}

// NewStore создает Store поверх storage. maxRetained <= 0 означает DefaultMaxRetained.
func NewStore(storage Storage, maxRetained int, log *slog.Logger, now func() time.Time) *Store {
	if maxRetained <= 0 {
		maxRetained = DefaultMaxRetained
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		storage:     storage,
		maxRetained: maxRetained,
		log:         log,
		now:         now,
		mu:          &sync.Mutex{},
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// load читает список. Повреждённые или недоступные данные дают пустой список.
func (s *Store) load(ctx context.Context) []models.Notification {
	const op = "notification.load"

	data, err := s.storage.Read(ctx)
	if err != nil {
		s.log.Error("failed to read notifications", sl.Op(op), sl.Err(err))
		metrics.NotificationReadFailures.Inc()
		return []models.Notification{}
	}
	if len(data) == 0 {
		return []models.Notification{}
	}

	var list []models.Notification
	if err := json.Unmarshal(data, &list); err != nil {
		s.log.Error("failed to decode notifications", sl.Op(op), sl.Err(err))
		metrics.NotificationReadFailures.Inc()
		return []models.Notification{}
	}
	if list == nil {
		list = []models.Notification{}
	}
	return list
}

func (s *Store) save(ctx context.Context, list []models.Notification) error {
	const op = "notification.save"

	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.storage.Write(ctx, data); err != nil {
		s.log.Error("failed to write notifications", sl.Op(op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// List возвращает уведомления, новые первыми. Никогда не возвращает ошибку.
func (s *Store) List(ctx context.Context) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get возвращает уведомление по id.
func (s *Store) Get(ctx context.Context, id string) (models.Notification, error) {
	for _, n := range s.List(ctx) {
		if n.ID == id {
			return n, nil
		}
	}
	return models.Notification{}, ErrNotFound
}

// Add добавляет уведомление в начало списка и обрезает список
// до maxRetained последних записей.
func (s *Store) Add(ctx context.Context, d Draft) (models.Notification, error) {
	const op = "notification.Add"
	if !d.Type.Valid() {
		return models.Notification{}, fmt.Errorf("%s: %w: %q", op, ErrInvalidType, d.Type)
	}

	n := models.Notification{
		ID:          newID(),
		Type:        d.Type,
		Title:       d.Title,
		Message:     d.Message,
		Action:      d.Action,
		Dismissible: d.Dismissible,
		CreatedAt:   s.now(),
		Read:        false,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load(ctx)
	list = append([]models.Notification{n}, list...)
	if len(list) > s.maxRetained {
		list = list[:s.maxRetained]
	}
	if err := s.save(ctx, list); err != nil {
		return models.Notification{}, err
	}

	metrics.NotificationsAdded.WithLabelValues(string(n.Type)).Inc()
	return n, nil
}

// MarkAsRead помечает уведомление прочитанным. Отсутствующий id — не ошибка.
func (s *Store) MarkAsRead(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load(ctx)
	changed := false
	for i := range list {
		if list[i].ID == id && !list[i].Read {
			list[i].Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(ctx, list)
}

// MarkAllAsRead помечает прочитанными все уведомления.
func (s *Store) MarkAllAsRead(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load(ctx)
	changed := false
	for i := range list {
		if !list[i].Read {
			list[i].Read = true
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.save(ctx, list)
}

// Delete удаляет уведомление навсегда. Отсутствующий id — не ошибка.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load(ctx)
	kept := list[:0]
	for _, n := range list {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	return s.save(ctx, kept)
}

// DeleteIf удаляет уведомление, если check не вернул ошибку. Проверка и
// удаление выполняются под одной блокировкой. Отсутствующий id дает ErrNotFound.
func (s *Store) DeleteIf(ctx context.Context, id string, check func(models.Notification) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.load(ctx)
	idx := slices.IndexFunc(list, func(n models.Notification) bool { return n.ID == id })
	if idx < 0 {
		return ErrNotFound
	}
	if err := check(list[idx]); err != nil {
		return err
	}
	return s.save(ctx, slices.Delete(list, idx, idx+1))
}

// UnreadCount количество непрочитанных уведомлений.
func (s *Store) UnreadCount(ctx context.Context) int {
	count := 0
	for _, n := range s.List(ctx) {
		if !n.Read {
			count++
		}
	}
	return count
}

// ClearAll удаляет все уведомления.
func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, []models.Notification{})
}
