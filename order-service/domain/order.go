package domain

import (
	"context"
	"time"

	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
)

var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidOrderState     = errors.New("invalid order state")
	ErrPaymentUpdateConflict = errors.New("payment already marked as successful")
	ErrConcurrentUpdate      = errors.New("order was modified concurrently")
	ErrProductUnavailable    = errors.New("product lookup unavailable")
)

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus validates a status string from the outside world
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", errors.Wrapf(ErrInvalidOrderState, "unknown order status %q", s)
	}
}

// IsTerminal reports whether no further order-status transition is legal
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentStatus mirrors the payment service's settlement outcome on the order
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// ParsePaymentStatus validates a payment status string from an event payload
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed:
		return PaymentStatus(s), nil
	default:
		return "", errors.Wrapf(ErrInvalidOrderState, "unknown payment status %q", s)
	}
}

// PricedProduct is what the product lookup returns for a product id
type PricedProduct struct {
	ID    models.ID    `json:"id"`
	Name  string       `json:"name"`
	Price models.Money `json:"price"`
}

// OrderItem is a value record owned by its Order. Name and price are
// snapshots taken at order-creation time and never refreshed from the
// catalog afterwards.
type OrderItem struct {
	ProductID   models.ID
	ProductName string
	Price       models.Money
	Quantity    int
	Subtotal    models.Money
}

// NewOrderItem snapshots a priced product into an order line
func NewOrderItem(product PricedProduct, quantity int) (OrderItem, error) {
	if quantity <= 0 {
		return OrderItem{}, errors.Wrapf(ErrInvalidOrderState, "invalid quantity %d for product %s", quantity, product.ID)
	}
	if !product.Price.IsPositive() {
		return OrderItem{}, errors.Wrapf(ErrInvalidOrderState, "product %s has no price", product.ID)
	}

	return OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		Price:       product.Price,
		Quantity:    quantity,
		Subtotal:    product.Price.MultiplyBy(quantity),
	}, nil
}

// Order aggregate root
type Order struct {
	ID                 models.ID
	UserID             models.ID
	Items              []OrderItem
	TotalAmount        models.Money
	Status             OrderStatus
	PaymentStatus      PaymentStatus
	PaymentReferenceID string
	Timestamps         models.Timestamps
	Version            models.Version

	events []*events.Event
}

// CreateOrder factory method. The total is the exact integer sum of the
// item subtotals; an order without items cannot exist.
func CreateOrder(userID models.ID, items []OrderItem) (*Order, error) {
	if len(items) == 0 {
		return nil, errors.Wrap(ErrInvalidOrderState, "order must contain at least one product")
	}

	total := models.NewMoney(0, items[0].Subtotal.Currency)
	for _, item := range items {
		var err error
		total, err = total.Add(item.Subtotal)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidOrderState, err.Error())
		}
	}

	order := &Order{
		ID:            models.GenerateUUID(),
		UserID:        userID,
		Items:         items,
		TotalAmount:   total,
		Status:        OrderStatusPending,
		PaymentStatus: PaymentStatusPending,
		Timestamps:    models.NewTimestamps(),
		Version:       models.NewVersion(),
	}

	order.recordEvent(events.NewEvent(order.ID, events.OrderCreatedEvent, NewOrderPayload(order)))
	return order, nil
}

// UpdateStatus transitions the order status. Terminal states accept no
// further transition.
func (o *Order) UpdateStatus(newStatus OrderStatus) error {
	if o.Status == OrderStatusCancelled {
		return errors.Wrap(ErrInvalidOrderState, "cannot update status of a cancelled order")
	}
	if o.Status == OrderStatusDelivered {
		return errors.Wrap(ErrInvalidOrderState, "order already delivered")
	}

	o.Status = newStatus
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()

	o.recordEvent(events.NewEvent(o.ID, events.OrderStatusUpdatedEvent, NewOrderPayload(o)))
	return nil
}

// RecordPaymentStatus applies a settlement outcome reported by the payment
// service. A second SUCCESS for an already successful payment is rejected
// so redelivered events cannot overwrite the original settlement reference.
func (o *Order) RecordPaymentStatus(status PaymentStatus, referenceID string) error {
	if o.PaymentStatus == PaymentStatusSuccess && status == PaymentStatusSuccess {
		return errors.Wrapf(ErrPaymentUpdateConflict, "order %s", o.ID)
	}

	o.PaymentStatus = status
	o.PaymentReferenceID = referenceID
	o.Timestamps = o.Timestamps.Update()
	o.Version = o.Version.Update()

	o.recordEvent(events.NewEvent(o.ID, orderPaymentRecordedEvent, NewOrderPayload(o)))
	return nil
}

// Events returns recorded domain events
func (o *Order) Events() []*events.Event {
	return o.events
}

// ClearEvents clears recorded domain events
func (o *Order) ClearEvents() {
	o.events = make([]*events.Event, 0)
}

func (o *Order) recordEvent(event *events.Event) {
	o.events = append(o.events, event)
}

// orderPaymentRecordedEvent marks the reconciler's local write for the
// repository; it is never published to the bus.
const orderPaymentRecordedEvent = events.Topic("order.payment.recorded")

// OrderItemPayload is the wire shape of a line item
type OrderItemPayload struct {
	ProductID   models.ID    `json:"productId"`
	ProductName string       `json:"productName"`
	Price       models.Money `json:"price"`
	Quantity    int          `json:"quantity"`
	Subtotal    models.Money `json:"subtotal"`
}

// OrderPayload is the wire shape of an order, carried by order.created
// and order.status.updated
type OrderPayload struct {
	ID                 models.ID          `json:"id"`
	UserID             models.ID          `json:"userId"`
	Items              []OrderItemPayload `json:"items"`
	TotalAmount        models.Money       `json:"totalAmount"`
	Status             OrderStatus        `json:"status"`
	PaymentStatus      PaymentStatus      `json:"paymentStatus"`
	PaymentReferenceID string             `json:"paymentReferenceId,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// NewOrderPayload snapshots an order into its wire shape
func NewOrderPayload(o *Order) OrderPayload {
	items := make([]OrderItemPayload, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemPayload{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Price:       item.Price,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		}
	}

	return OrderPayload{
		ID:                 o.ID,
		UserID:             o.UserID,
		Items:              items,
		TotalAmount:        o.TotalAmount,
		Status:             o.Status,
		PaymentStatus:      o.PaymentStatus,
		PaymentReferenceID: o.PaymentReferenceID,
		CreatedAt:          o.Timestamps.CreatedAt,
		UpdatedAt:          o.Timestamps.UpdatedAt,
	}
}

// OrderRepository interface. Save applies guard-checked conditional
// updates: a write that loses an optimistic-lock race returns
// ErrConcurrentUpdate.
type OrderRepository interface {
	Save(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id models.ID) (*Order, error)
	FindAll(ctx context.Context) ([]*Order, error)
	FindByUserID(ctx context.Context, userID models.ID) ([]*Order, error)
}

// ProductFinder is the priced-product lookup boundary. The caller's bearer
// credential is forwarded explicitly, never read from ambient state.
type ProductFinder interface {
	FindByID(ctx context.Context, productID models.ID, bearerToken string) (*PricedProduct, error)
}
