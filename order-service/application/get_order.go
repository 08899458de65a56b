package application

import (
	"context"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
)

// GetOrderQuery represents the query to get an order
type GetOrderQuery struct {
	OrderID string
}

// GetOrder use case
type GetOrder struct {
	orderRepository domain.OrderRepository
}

// NewGetOrder creates a new GetOrder use case
func NewGetOrder(orderRepository domain.OrderRepository) *GetOrder {
	return &GetOrder{
		orderRepository: orderRepository,
	}
}

// Execute executes the get order use case
func (uc *GetOrder) Execute(ctx context.Context, query *GetOrderQuery) (*domain.OrderPayload, error) {
	orderID, err := models.NewID(query.OrderID)
	if err != nil {
		return nil, errors.Wrap(domain.ErrInvalidOrderState, "invalid order ID")
	}

	order, err := uc.orderRepository.FindByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find order")
	}
	if order == nil {
		return nil, errors.Wrapf(domain.ErrOrderNotFound, "order %s", orderID)
	}

	payload := domain.NewOrderPayload(order)
	return &payload, nil
}

// ListOrdersQuery filters the listing by user when UserID is set
type ListOrdersQuery struct {
	UserID string
}

// ListOrders use case
type ListOrders struct {
	orderRepository domain.OrderRepository
}

// NewListOrders creates a new ListOrders use case
func NewListOrders(orderRepository domain.OrderRepository) *ListOrders {
	return &ListOrders{
		orderRepository: orderRepository,
	}
}

// Execute executes the list orders use case
func (uc *ListOrders) Execute(ctx context.Context, query *ListOrdersQuery) ([]domain.OrderPayload, error) {
	var (
		orders []*domain.Order
		err    error
	)

	if query.UserID != "" {
		userID, idErr := models.NewID(query.UserID)
		if idErr != nil {
			return nil, errors.Wrap(domain.ErrInvalidOrderState, "invalid user ID")
		}
		orders, err = uc.orderRepository.FindByUserID(ctx, userID)
	} else {
		orders, err = uc.orderRepository.FindAll(ctx)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	payloads := make([]domain.OrderPayload, len(orders))
	for i, order := range orders {
		payloads[i] = domain.NewOrderPayload(order)
	}

	return payloads, nil
}
