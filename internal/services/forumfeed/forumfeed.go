// Package forumfeed превращает события форума из брокера в уведомления пользователя.
package forumfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator"

	"github.com/advileads/advileads/internal/lib/sl"
	"github.com/advileads/advileads/internal/metrics"
	"github.com/advileads/advileads/internal/models"
	"github.com/advileads/advileads/internal/notification"
	"github.com/advileads/advileads/internal/rabbitmq"
)

// Stores выдает хранилище уведомлений пользователя.
type Stores interface {
	For(userUID string) *notification.Store
}

// Feed обработчик очереди notifications.forum.
type Feed struct {
	stores   Stores
	validate *validator.Validate
	log      *slog.Logger
}

func New(stores Stores, log *slog.Logger) *Feed {
	return &Feed{
		stores:   stores,
		validate: validator.New(),
		log:      log,
	}
}

// Handle разбирает событие и добавляет уведомление. Невалидные события
// отклоняются без повторной доставки, ошибки хранилища ведут к повтору.
func (f *Feed) Handle(ctx context.Context, body []byte) error {
	const op = "forumfeed.Handle"

	var event models.ForumEvent
	if err := json.Unmarshal(body, &event); err != nil {
		metrics.ForumEvents.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%s: decode: %w: %w", op, rabbitmq.ErrReject, err)
	}
	if err := f.validate.Struct(event); err != nil {
		metrics.ForumEvents.WithLabelValues("invalid").Inc()
		return fmt.Errorf("%s: validate: %w: %w", op, rabbitmq.ErrReject, err)
	}

	if _, err := f.stores.For(event.UserUID).Add(ctx, notification.Forum(event.Kind, event.Content)); err != nil {
		metrics.ForumEvents.WithLabelValues("failed").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	metrics.ForumEvents.WithLabelValues("added").Inc()
	f.log.Debug("forum notification added", sl.User(event.UserUID), slog.String("kind", string(event.Kind)))
	return nil
}
