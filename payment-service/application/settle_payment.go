package application

import (
	"context"
	"log/slog"

	"github.com/draftea/order-system/payment-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// SettlePaymentCommand resolves a pending payment to SUCCESS or FAILED
type SettlePaymentCommand struct {
	OrderID string
	Outcome string
}

// SettlePayment use case. The settled state is persisted before the
// payment.status event goes out; if the publish then fails, the outcome
// is already durable and the failure is logged for operators to replay.
type SettlePayment struct {
	paymentRepository domain.PaymentRepository
	eventPublisher    events.Publisher
}

// NewSettlePayment creates a new SettlePayment use case
func NewSettlePayment(
	paymentRepository domain.PaymentRepository,
	eventPublisher events.Publisher,
) *SettlePayment {
	return &SettlePayment{
		paymentRepository: paymentRepository,
		eventPublisher:    eventPublisher,
	}
}

// Execute executes the settle payment use case
func (uc *SettlePayment) Execute(ctx context.Context, cmd *SettlePaymentCommand) (*domain.PaymentPayload, error) {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return nil, errors.Wrap(domain.ErrInvalidPaymentState, "invalid order ID")
	}

	outcome, err := domain.ParsePaymentStatus(cmd.Outcome)
	if err != nil {
		return nil, err
	}

	payment, err := uc.paymentRepository.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find payment")
	}
	if payment == nil {
		return nil, errors.Wrapf(domain.ErrPaymentNotFound, "no payment for order %s", orderID)
	}

	if err := payment.Settle(outcome); err != nil {
		return nil, err
	}

	if err := uc.paymentRepository.Save(ctx, payment); err != nil {
		return nil, errors.Wrap(err, "failed to save payment")
	}

	if err := uc.eventPublisher.Publish(ctx, payment.Events()...); err != nil {
		slog.ErrorContext(ctx, "payment settled but payment.status publish failed",
			"payment_id", payment.ID.String(), "order_id", orderID.String(), "error", err)
	}
	payment.ClearEvents()

	telemetry.RecordCounter(ctx, "payments_settled_total", "Payments resolved to a terminal outcome", 1,
		attribute.String("outcome", string(outcome)),
	)

	slog.InfoContext(ctx, "payment settled",
		"payment_id", payment.ID.String(), "order_id", orderID.String(), "outcome", string(outcome))

	payload := domain.NewPaymentPayload(payment)
	return &payload, nil
}
