package notification

import (
	"log/slog"
	"time"

	"github.com/advileads/advileads/internal/lib/keylock"
)

// DefaultKeyPrefix префикс ключа, под которым хранится список пользователя.
const DefaultKeyPrefix = "advileads_notifications"

// StorageFactory создает Storage для ключа.
type StorageFactory func(key string) Storage

// Registry выдает Store пользователя. Все Store одного ключа делят
// мьютекс из фиксированного набора, поэтому записи в список пользователя
// внутри процесса не пересекаются, а сам Registry не хранит состояние
// по пользователям.
type Registry struct {
	factory     StorageFactory
	prefix      string
	maxRetained int
	log         *slog.Logger
	now         func() time.Time
	locks       *keylock.Striped
}

// NewRegistry создает Registry.
func NewRegistry(factory StorageFactory, prefix string, maxRetained int, log *slog.Logger, now func() time.Time) *Registry {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Registry{
		factory:     factory,
		prefix:      prefix,
		maxRetained: maxRetained,
		log:         log,
		now:         now,
		locks:       keylock.New(keylock.DefaultStripes),
	}
}

// Key ключ хранилища для пользователя.
func (r *Registry) Key(userUID string) string {
	return r.prefix + ":" + userUID
}

// For возвращает Store пользователя.
func (r *Registry) For(userUID string) *Store {
	key := r.Key(userUID)
	s := NewStore(r.factory(key), r.maxRetained, r.log.With(slog.String("store", key)), r.now)
	s.mu = r.locks.For(key)
	return s
}
