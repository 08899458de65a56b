package application

import (
	"context"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/draftea/order-system/shared/telemetry"
	"github.com/pkg/errors"
)

// CreateOrderItemRequest is one requested line: the price comes from the
// product lookup, never from the client.
type CreateOrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderCommand represents the command to create an order. BearerToken
// is the caller's credential, forwarded explicitly to the product lookup.
type CreateOrderCommand struct {
	UserID      string                   `json:"userId"`
	Items       []CreateOrderItemRequest `json:"items"`
	BearerToken string                   `json:"-"`
}

// CreateOrder use case: builds a priced order from the catalog, persists
// it and announces it on the bus.
type CreateOrder struct {
	orderRepository domain.OrderRepository
	productFinder   domain.ProductFinder
	eventPublisher  events.Publisher
}

// NewCreateOrder creates a new CreateOrder use case
func NewCreateOrder(
	orderRepository domain.OrderRepository,
	productFinder domain.ProductFinder,
	eventPublisher events.Publisher,
) *CreateOrder {
	return &CreateOrder{
		orderRepository: orderRepository,
		productFinder:   productFinder,
		eventPublisher:  eventPublisher,
	}
}

// Execute creates the order. The order row survives a failed publish; the
// missing order.created event is a liveness gap for an out-of-band sweep,
// not a reason to roll back the persist.
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (*domain.OrderPayload, error) {
	if len(cmd.Items) == 0 {
		return nil, errors.Wrap(domain.ErrInvalidOrderState, "order must contain at least one product")
	}

	userID, err := models.NewID(cmd.UserID)
	if err != nil {
		return nil, errors.Wrap(domain.ErrInvalidOrderState, "invalid user ID")
	}

	items := make([]domain.OrderItem, 0, len(cmd.Items))
	for _, itemRequest := range cmd.Items {
		productID, err := models.NewID(itemRequest.ProductID)
		if err != nil {
			return nil, errors.Wrapf(domain.ErrInvalidOrderState, "invalid product ID %q", itemRequest.ProductID)
		}

		if itemRequest.Quantity <= 0 {
			return nil, errors.Wrapf(domain.ErrInvalidOrderState, "invalid quantity for product %s", productID)
		}

		product, err := uc.productFinder.FindByID(ctx, productID, cmd.BearerToken)
		if err != nil {
			if errors.Is(err, domain.ErrProductUnavailable) {
				return nil, err
			}
			return nil, errors.Wrapf(domain.ErrInvalidOrderState, "product not found or missing price: %s: %v", productID, err)
		}

		item, err := domain.NewOrderItem(*product, itemRequest.Quantity)
		if err != nil {
			return nil, err
		}

		items = append(items, item)
	}

	order, err := domain.CreateOrder(userID, items)
	if err != nil {
		return nil, err
	}

	if err := uc.orderRepository.Save(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to save order")
	}

	if err := uc.eventPublisher.Publish(ctx, order.Events()...); err != nil {
		// The order row is already durable; surface the gap to the caller
		return nil, errors.Wrapf(domain.ErrInvalidOrderState, "failed to publish order.created: %v", err)
	}
	order.ClearEvents()

	telemetry.RecordCounter(ctx, "orders_created_total", "Total orders created", 1)

	payload := domain.NewOrderPayload(order)
	return &payload, nil
}
