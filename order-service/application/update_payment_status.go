package application

import (
	"context"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/telemetry"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// UpdatePaymentStatusCommand carries a settlement outcome from the
// payment service onto the order
type UpdatePaymentStatusCommand struct {
	OrderID     string
	Status      string
	ReferenceID string
}

// UpdatePaymentStatus use case, invoked by the payment.status reconciler.
// The duplicate-success guard makes it safe under redelivery: the first
// SUCCESS wins and keeps its settlement reference.
type UpdatePaymentStatus struct {
	orderRepository domain.OrderRepository
}

// NewUpdatePaymentStatus creates a new UpdatePaymentStatus use case
func NewUpdatePaymentStatus(orderRepository domain.OrderRepository) *UpdatePaymentStatus {
	return &UpdatePaymentStatus{
		orderRepository: orderRepository,
	}
}

// Execute executes the payment-status update
func (uc *UpdatePaymentStatus) Execute(ctx context.Context, cmd *UpdatePaymentStatusCommand) error {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return errors.Wrap(domain.ErrInvalidOrderState, "invalid order ID")
	}

	status, err := domain.ParsePaymentStatus(cmd.Status)
	if err != nil {
		return err
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		return errors.Wrapf(domain.ErrOrderNotFound, "order %s", orderID)
	}

	if err := order.RecordPaymentStatus(status, cmd.ReferenceID); err != nil {
		return err
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return errors.Wrap(err, "failed to save order")
	}
	order.ClearEvents()

	telemetry.RecordCounter(ctx, "order_payments_reconciled_total", "Payment outcomes applied to orders", 1,
		attribute.String("status", string(status)),
	)

	return nil
}
