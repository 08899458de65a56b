package infrastructure

import (
	"context"
	"time"

	"github.com/draftea/order-system/shared/events"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

var _ events.Publisher = (*RabbitMQEventPublisher)(nil)

const defaultPublishTimeout = 5 * time.Second

// RabbitMQEventPublisher publishes events to a topic exchange using the
// event topic as routing key. The channel runs in confirm mode so a
// publish either lands on the broker or fails within the timeout; it
// never hangs.
type RabbitMQEventPublisher struct {
	ch       *amqp.Channel
	exchange string
	timeout  time.Duration
}

// NewRabbitMQEventPublisher puts the channel into confirm mode and
// returns a publisher bound to the exchange.
func NewRabbitMQEventPublisher(ch *amqp.Channel, exchange string) (*RabbitMQEventPublisher, error) {
	if err := ch.Confirm(false); err != nil {
		return nil, errors.Wrap(err, "could not enable publisher confirms")
	}

	return &RabbitMQEventPublisher{
		ch:       ch,
		exchange: exchange,
		timeout:  defaultPublishTimeout,
	}, nil
}

// Publish publishes events to the exchange
func (p *RabbitMQEventPublisher) Publish(ctx context.Context, evts ...*events.Event) error {
	for _, event := range evts {
		if err := p.publish(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (p *RabbitMQEventPublisher) publish(ctx context.Context, event *events.Event) error {
	body, err := event.ToJSON()
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx,
		p.exchange,
		event.Topic.String(), // routing key
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "failed to publish event %s", event.Topic)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "publish confirm timed out for %s", event.Topic)
	}
	if !acked {
		return errors.Errorf("broker rejected event %s", event.Topic)
	}

	return nil
}
