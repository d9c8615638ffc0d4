package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

const (
	ExchangeForum     = "forum"
	ExchangeMarketing = "marketing"

	QueueForumNotifications = "notifications.forum"

	RoutingForumAll     = "forum.#"
	RoutingTrialWarning = "trial.warning"
)

// QueueConfig привязка очереди к обменнику.
type QueueConfig struct {
	Exchange   string
	QueueName  string
	RoutingKey string
}

// Topology описывает обменники (все topic) и очереди сервиса.
type Topology struct {
	Exchanges []string
	Queues    []QueueConfig
}

// DefaultTopology форумная лента потребляется сервисом, маркетинговые
// события только публикуются.
func DefaultTopology() Topology {
	return Topology{
		Exchanges: []string{ExchangeForum, ExchangeMarketing},
		Queues: []QueueConfig{
			{Exchange: ExchangeForum, QueueName: QueueForumNotifications, RoutingKey: RoutingForumAll},
		},
	}
}

// SetupChannel открывает канал и объявляет топологию.
func SetupChannel(conn *amqp.Connection, topology Topology) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := declare(ch, topology); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, nil
}

func declare(ch *amqp.Channel, topology Topology) error {
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	for _, exchange := range topology.Exchanges {
		err := ch.ExchangeDeclare(
			exchange,
			"topic",
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
		}
	}

	for _, q := range topology.Queues {
		_, err := ch.QueueDeclare(
			q.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", q.QueueName, err)
		}

		err = ch.QueueBind(
			q.QueueName,
			q.RoutingKey,
			q.Exchange,
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("failed to bind queue %s with routing key %s: %w", q.QueueName, q.RoutingKey, err)
		}
	}
	return nil
}
