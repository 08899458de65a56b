package application

import (
	"context"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
)

// UpdateOrderStatusCommand represents a requested order-status transition
type UpdateOrderStatusCommand struct {
	OrderID string
	Status  string
}

// UpdateOrderStatus use case: applies the terminal-state guard, persists
// the transition and publishes order.status.updated.
type UpdateOrderStatus struct {
	orderRepository domain.OrderRepository
	eventPublisher  events.Publisher
}

// NewUpdateOrderStatus creates a new UpdateOrderStatus use case
func NewUpdateOrderStatus(
	orderRepository domain.OrderRepository,
	eventPublisher events.Publisher,
) *UpdateOrderStatus {
	return &UpdateOrderStatus{
		orderRepository: orderRepository,
		eventPublisher:  eventPublisher,
	}
}

// Execute executes the status update
func (uc *UpdateOrderStatus) Execute(ctx context.Context, cmd *UpdateOrderStatusCommand) error {
	orderID, err := models.NewID(cmd.OrderID)
	if err != nil {
		return errors.Wrap(domain.ErrInvalidOrderState, "invalid order ID")
	}

	newStatus, err := domain.ParseOrderStatus(cmd.Status)
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

	if err := order.UpdateStatus(newStatus); err != nil {
		return err
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return errors.Wrap(err, "failed to save order")
	}

	if err := uc.eventPublisher.Publish(ctx, order.Events()...); err != nil {
		return errors.Wrapf(domain.ErrInvalidOrderState, "failed to publish order.status.updated: %v", err)
	}
	order.ClearEvents()

	return nil
}
