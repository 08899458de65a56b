package config

import (
	"context"
	"fmt"

	"github.com/draftea/order-system/payment-service/application"
	"github.com/draftea/order-system/payment-service/handlers"
	"github.com/draftea/order-system/payment-service/infrastructure"
	"github.com/draftea/order-system/shared/events"
	sharedinfra "github.com/draftea/order-system/shared/infrastructure"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	PaymentRepository *infrastructure.PostgresPaymentRepository

	// Use Cases
	InitiatePayment       *application.InitiatePayment
	SettlePayment         *application.SettlePayment
	GetPayment            *application.GetPayment
	GetPaymentByReference *application.GetPaymentByReference
	ListPayments          *application.ListPayments

	// HTTP Handlers
	PaymentHandlers *handlers.PaymentHandlers

	// Event Handlers
	OrderEventHandlers *handlers.OrderEventHandlers

	// Infrastructure
	EventPublisher  events.Publisher
	EventSubscriber events.Subscriber

	rabbitConn *amqp.Connection
	rabbitCh   *amqp.Channel
}

func BuildDependencies(ctx context.Context, config *Config) (*Dependencies, error) {
	deps := &Dependencies{}

	// Initialize database
	db, err := sqlx.Connect("postgres", config.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	deps.DB = db

	// Initialize event transport
	if err := deps.buildBus(ctx, config); err != nil {
		deps.Close()
		return nil, err
	}

	// Initialize repositories
	deps.PaymentRepository = infrastructure.NewPostgresPaymentRepository(db)

	// Initialize use cases
	deps.InitiatePayment = application.NewInitiatePayment(deps.PaymentRepository)
	deps.SettlePayment = application.NewSettlePayment(deps.PaymentRepository, deps.EventPublisher)
	deps.GetPayment = application.NewGetPayment(deps.PaymentRepository)
	deps.GetPaymentByReference = application.NewGetPaymentByReference(deps.PaymentRepository)
	deps.ListPayments = application.NewListPayments(deps.PaymentRepository)

	// Initialize handlers
	deps.PaymentHandlers = handlers.NewPaymentHandlers(
		deps.SettlePayment,
		deps.GetPayment,
		deps.GetPaymentByReference,
		deps.ListPayments,
	)
	deps.OrderEventHandlers = handlers.NewOrderEventHandlers(deps.InitiatePayment)

	return deps, nil
}

// buildBus wires the configured event transport. RabbitMQ declares the
// full exchange topology on startup; the SNS/SQS pair assumes topic and
// queue already exist.
func (d *Dependencies) buildBus(ctx context.Context, config *Config) error {
	switch config.Bus.Driver {
	case "rabbitmq":
		conn, ch, err := sharedinfra.DialRabbitMQ(config.Bus.RabbitMQ.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		d.rabbitConn = conn
		d.rabbitCh = ch

		topology := sharedinfra.Topology{
			Exchange: config.Bus.RabbitMQ.Exchange,
			Bindings: []sharedinfra.QueueBinding{
				{Queue: config.Bus.RabbitMQ.Queue, RoutingKey: config.Bus.RabbitMQ.RoutingKey},
			},
		}
		if err := topology.Declare(ch); err != nil {
			return fmt.Errorf("failed to declare broker topology: %w", err)
		}

		publisher, err := sharedinfra.NewRabbitMQEventPublisher(ch, config.Bus.RabbitMQ.Exchange)
		if err != nil {
			return fmt.Errorf("failed to create RabbitMQ publisher: %w", err)
		}
		d.EventPublisher = publisher
		d.EventSubscriber = sharedinfra.NewRabbitMQEventSubscriber(ch, config.Bus.RabbitMQ.Queue,
			sharedinfra.WithConsumerWorkers(config.Bus.RabbitMQ.Workers))
		return nil

	case "sns":
		publisher, err := sharedinfra.NewSNSEventPublisher(ctx, config.Bus.AWS.SNSTopicArn)
		if err != nil {
			return fmt.Errorf("failed to create SNS publisher: %w", err)
		}
		d.EventPublisher = publisher

		subscriber, err := sharedinfra.NewSQSEventSubscriber(ctx, config.Bus.AWS.SQSQueueURL)
		if err != nil {
			return fmt.Errorf("failed to create SQS subscriber: %w", err)
		}
		d.EventSubscriber = subscriber
		return nil

	default:
		return fmt.Errorf("unknown bus driver %q", config.Bus.Driver)
	}
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.EventSubscriber != nil {
		if closer, ok := d.EventSubscriber.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close event subscriber: %w", err))
			}
		}
	}

	if d.rabbitCh != nil {
		if err := d.rabbitCh.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close RabbitMQ channel: %w", err))
		}
	}
	if d.rabbitConn != nil {
		if err := d.rabbitConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close RabbitMQ connection: %w", err))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
