package infrastructure

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/draftea/order-system/shared/events"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
)

var _ events.Subscriber = (*RabbitMQEventSubscriber)(nil)

// RabbitMQEventSubscriber consumes a durable queue and fans deliveries out
// to a pool of worker goroutines. Delivery is at-least-once: handlers must
// be idempotent. Messages that cannot be parsed, and messages the handler
// rejects, are acked after logging so a poison message never loops forever.
type RabbitMQEventSubscriber struct {
	ch      *amqp.Channel
	queue   string
	workers int
	running atomic.Bool
	cancel  context.CancelFunc
}

type RabbitMQSubscriberOption func(*RabbitMQEventSubscriber)

func WithConsumerWorkers(workers int) RabbitMQSubscriberOption {
	return func(s *RabbitMQEventSubscriber) {
		s.workers = workers
	}
}

// NewRabbitMQEventSubscriber creates a subscriber for the given queue.
func NewRabbitMQEventSubscriber(ch *amqp.Channel, queue string, opts ...RabbitMQSubscriberOption) *RabbitMQEventSubscriber {
	s := &RabbitMQEventSubscriber{
		ch:      ch,
		queue:   queue,
		workers: 4,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Subscribe starts consuming and returns; workers run until the context is
// cancelled or Close is called.
func (s *RabbitMQEventSubscriber) Subscribe(ctx context.Context, handler events.EventHandler) error {
	if s.running.Load() {
		return errors.New("subscriber is already running")
	}

	if err := s.ch.Qos(s.workers*2, 0, false); err != nil {
		return errors.Wrap(err, "could not set channel QoS")
	}

	deliveries, err := s.ch.Consume(
		s.queue,
		handler.HandlerID(), // consumer tag
		false,               // manual ack
		false,               // exclusive
		false,               // no-local
		false,               // no-wait
		nil,
	)
	if err != nil {
		return errors.Wrapf(err, "could not consume queue %s", s.queue)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running.Store(true)

	for i := 0; i < s.workers; i++ {
		go s.work(ctx, deliveries, handler)
	}

	return nil
}

// Close stops the consumer workers
func (s *RabbitMQEventSubscriber) Close() error {
	if !s.running.Load() {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.running.Store(false)
	return s.ch.Cancel("", false)
}

func (s *RabbitMQEventSubscriber) work(ctx context.Context, deliveries <-chan amqp.Delivery, handler events.EventHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			s.handle(ctx, d, handler)
		}
	}
}

func (s *RabbitMQEventSubscriber) handle(ctx context.Context, d amqp.Delivery, handler events.EventHandler) {
	event, err := events.FromJSON(d.Body)
	if err != nil {
		// Poison message: a payload that never parses must not requeue
		slog.ErrorContext(ctx, "dropping unparseable message",
			"queue", s.queue, "message_id", d.MessageId, "error", err)
		d.Ack(false)
		return
	}

	if err := handler.Handle(ctx, event); err != nil {
		slog.ErrorContext(ctx, "event handler failed, dropping message",
			"queue", s.queue, "topic", event.Topic.String(), "error", err)
	}

	d.Ack(false)
}
