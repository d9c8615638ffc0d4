package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"

	"github.com/advileads/advileads/internal/lib/sl"
)

const prefetch = 10

// ErrReject помечает сообщение, которое бессмысленно доставлять повторно
// (например, невалидный JSON). Такое сообщение отбрасывается без requeue.
var ErrReject = errors.New("reject message")

// Handler обрабатывает тело сообщения.
type Handler func(ctx context.Context, body []byte) error

// ConsumerMessage запускает потребителя очереди: не более prefetch
// сообщений обрабатываются одновременно. Возвращённый канал закрывается,
// когда все обработчики завершились после остановки ctx или закрытия доставки.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, log *slog.Logger, handler Handler) (<-chan struct{}, error) {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(sl.Op(op), slog.String("queue", queueName))
	done := make(chan struct{})
	go func() {
		defer close(done)
		consume(ctx, delivery, log, handler)
	}()
	return done, nil
}

func consume(ctx context.Context, delivery <-chan amqp.Delivery, log *slog.Logger, handler Handler) {
	var wg sync.WaitGroup
	defer wg.Wait()

	sem := make(chan struct{}, prefetch)
	for {
		select {
		case d, ok := <-delivery:
			if !ok {
				return
			}
			sem <- struct{}{}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				defer func() { <-sem }()
				settle(ctx, d, log, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

func settle(ctx context.Context, d amqp.Delivery, log *slog.Logger, handler Handler) {
	err := handler(ctx, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
	case errors.Is(err, ErrReject):
		log.Warn("message rejected", sl.Err(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	default:
		log.Error("message handling failed, requeue", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	}
}
