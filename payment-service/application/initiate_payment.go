package application

import (
	"context"
	"log/slog"

	"github.com/draftea/order-system/payment-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/telemetry"
	"github.com/pkg/errors"
)

// InitiatePaymentCommand opens a pending payment for a newly created order
type InitiatePaymentCommand struct {
	OrderID string
	UserID  string
	Amount  models.Money
}

// InitiatePayment use case, driven by order.created events. The order ID
// is the idempotency key: a redelivered event finds the existing payment
// row and becomes a no-op, so at-least-once delivery never produces two
// payments for one order.
type InitiatePayment struct {
	paymentRepository domain.PaymentRepository
}

// NewInitiatePayment creates a new InitiatePayment use case
func NewInitiatePayment(paymentRepository domain.PaymentRepository) *InitiatePayment {
	return &InitiatePayment{
		paymentRepository: paymentRepository,
	}
}

// Execute executes the initiate payment use case
func (uc *InitiatePayment) Execute(ctx context.Context, cmd *InitiatePaymentCommand) (*domain.PaymentPayload, error) {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return nil, errors.Wrap(domain.ErrInvalidPaymentState, "invalid order ID")
	}

	userID, err := models.NewID(cmd.UserID)
	if err != nil {
		return nil, errors.Wrap(domain.ErrInvalidPaymentState, "invalid user ID")
	}

	payment, err := domain.InitiatePayment(orderID, userID, cmd.Amount)
	if err != nil {
		return nil, err
	}

	if err := uc.paymentRepository.Save(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrDuplicatePayment) {
			slog.InfoContext(ctx, "payment already exists for order, skipping",
				"order_id", orderID.String())
			existing, findErr := uc.paymentRepository.FindByOrderID(ctx, orderID)
			if findErr != nil || existing == nil {
				return nil, errors.Wrap(err, "duplicate payment lookup failed")
			}
			payload := domain.NewPaymentPayload(existing)
			return &payload, nil
		}
		return nil, errors.Wrap(err, "failed to save payment")
	}
	payment.ClearEvents()

	telemetry.RecordCounter(ctx, "payments_initiated_total", "Payments opened from order.created events", 1)

	slog.InfoContext(ctx, "payment initiated",
		"payment_id", payment.ID.String(), "order_id", orderID.String())

	payload := domain.NewPaymentPayload(payment)
	return &payload, nil
}
