package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
)

var _ events.Subscriber = (*SQSEventSubscriber)(nil)

type sqsDelivery struct {
	message sqstypes.Message
	event   *events.Event
}

// SQSEventSubscriber long-polls a queue fed by the SNS topic and fans
// deliveries out to worker goroutines. Unparseable and rejected messages
// are deleted after logging; the queue's own redrive policy is the place
// for anything more elaborate.
type SQSEventSubscriber struct {
	client   *sqs.Client
	queueURL string
	workers  int
	waitTime int32
	running  atomic.Bool
	cancel   context.CancelFunc
}

type SQSSubscriberOption func(*SQSEventSubscriber)

func WithSQSWorkers(workers int) SQSSubscriberOption {
	return func(s *SQSEventSubscriber) {
		s.workers = workers
	}
}

// NewSQSEventSubscriber creates a subscriber from the ambient AWS config.
func NewSQSEventSubscriber(ctx context.Context, queueURL string, opts ...SQSSubscriberOption) (*SQSEventSubscriber, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load AWS config")
	}

	s := &SQSEventSubscriber{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
		workers:  4,
		waitTime: 15,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Subscribe starts the reader and worker goroutines and returns.
func (s *SQSEventSubscriber) Subscribe(ctx context.Context, handler events.EventHandler) error {
	if s.running.Load() {
		return errors.New("subscriber is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	deliveries := make(chan *sqsDelivery, s.workers*2)

	for i := 0; i < s.workers; i++ {
		go s.work(ctx, deliveries, handler)
	}
	go s.read(ctx, deliveries)

	s.running.Store(true)
	return nil
}

// Close stops the subscriber
func (s *SQSEventSubscriber) Close() error {
	if !s.running.Load() {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.running.Store(false)
	return nil
}

func (s *SQSEventSubscriber) read(ctx context.Context, deliveries chan<- *sqsDelivery) {
	defer close(deliveries)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		output, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueURL),
			MaxNumberOfMessages: 5,
			WaitTimeSeconds:     s.waitTime,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.ErrorContext(ctx, "failed to receive from SQS", "error", err)
			time.Sleep(5 * time.Second)
			continue
		}

		for _, message := range output.Messages {
			event, err := s.decode(message)
			if err != nil {
				slog.ErrorContext(ctx, "dropping unparseable SQS message",
					"message_id", aws.ToString(message.MessageId), "error", err)
				s.delete(ctx, message)
				continue
			}

			select {
			case deliveries <- &sqsDelivery{message: message, event: event}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *SQSEventSubscriber) decode(message sqstypes.Message) (*events.Event, error) {
	var msg snsMessage
	if err := json.Unmarshal([]byte(aws.ToString(message.Body)), &msg); err != nil {
		return nil, errors.Wrap(err, "invalid message body")
	}

	topic, err := events.NewTopic(msg.Topic)
	if err != nil {
		return nil, err
	}

	metadata := msg.Metadata
	if metadata == nil {
		metadata = make(events.Metadata)
	}

	return &events.Event{
		ID:          models.ID(msg.ID),
		AggregateID: models.ID(msg.AggregateID),
		Topic:       topic,
		Version:     "1.0",
		Data:        msg.Payload,
		Metadata:    metadata,
		Timestamp:   msg.Timestamp,
	}, nil
}

func (s *SQSEventSubscriber) work(ctx context.Context, deliveries <-chan *sqsDelivery, handler events.EventHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			if err := handler.Handle(ctx, d.event); err != nil {
				slog.ErrorContext(ctx, "event handler failed, dropping message",
					"topic", d.event.Topic.String(), "error", err)
			}
			s.delete(ctx, d.message)
		}
	}
}

func (s *SQSEventSubscriber) delete(ctx context.Context, message sqstypes.Message) {
	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueURL),
		ReceiptHandle: message.ReceiptHandle,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to delete SQS message", "error", err)
	}
}
