package infrastructure

import (
	"log/slog"
	"time"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

// QueueBinding binds a durable queue to the exchange under a routing key.
type QueueBinding struct {
	Queue      string `mapstructure:"queue"`
	RoutingKey string `mapstructure:"routing_key"`
}

// Topology is the broker layout a service declares once at startup.
// Exchange, queues and bindings come from configuration; nothing mutates
// the topology at runtime.
type Topology struct {
	Exchange string         `mapstructure:"exchange"`
	Bindings []QueueBinding `mapstructure:"bindings"`
}

const exchangeType = "topic"

// DialRabbitMQ connects to the broker with a short retry loop so services
// survive broker container startup ordering.
func DialRabbitMQ(url string) (*amqp.Connection, *amqp.Channel, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		slog.Warn("rabbitmq connect failed, retrying", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, errors.Wrap(err, "could not open channel")
	}

	return conn, ch, nil
}

// Declare sets up the exchange, queues and bindings on the given channel.
func (t Topology) Declare(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		t.Exchange,
		exchangeType,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return errors.Wrapf(err, "could not declare exchange %s", t.Exchange)
	}

	for _, b := range t.Bindings {
		if _, err := ch.QueueDeclare(
			b.Queue,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			return errors.Wrapf(err, "could not declare queue %s", b.Queue)
		}

		if err := ch.QueueBind(b.Queue, b.RoutingKey, t.Exchange, false, nil); err != nil {
			return errors.Wrapf(err, "could not bind queue %s to %s", b.Queue, b.RoutingKey)
		}
	}

	return nil
}
