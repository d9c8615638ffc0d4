package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/advileads/advileads/internal/notification"
)

// NotificationStorage хранит сериализованный список уведомлений под одним ключом redis.
type NotificationStorage struct {
	db  *redis.Client
	key string
}

// NotificationStorage возвращает хранилище уведомлений для ключа.
func (c *Cache) NotificationStorage(key string) *NotificationStorage {
	return &NotificationStorage{db: c.Db, key: key}
}

// NotificationFactory фабрика хранилищ для notification.Registry.
func (c *Cache) NotificationFactory() notification.StorageFactory {
	return func(key string) notification.Storage {
		return c.NotificationStorage(key)
	}
}

func (s *NotificationStorage) Read(ctx context.Context) ([]byte, error) {
	const op = "cache.NotificationStorage.Read"
	data, err := s.db.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

func (s *NotificationStorage) Write(ctx context.Context, data []byte) error {
	const op = "cache.NotificationStorage.Write"
	if err := s.db.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
