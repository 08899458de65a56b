package handlers

import (
	"context"
	"log/slog"

	"github.com/draftea/order-system/payment-service/application"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
)

// OrderCreatedData is the slice of the order.created payload the payment
// service needs; unknown fields are ignored
type OrderCreatedData struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	TotalAmount models.Money `json:"totalAmount"`
}

// OrderEventHandlers opens payments for newly created orders. Handler
// errors never propagate: a malformed payload is logged and the message
// dropped, so a poison message cannot wedge the consumer loop.
type OrderEventHandlers struct {
	initiatePayment *application.InitiatePayment
}

// NewOrderEventHandlers creates the order.created consumer
func NewOrderEventHandlers(initiatePayment *application.InitiatePayment) *OrderEventHandlers {
	return &OrderEventHandlers{
		initiatePayment: initiatePayment,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *OrderEventHandlers) HandlerID() string {
	return "payment-service-order-created-consumer"
}

// Handle implements the events.EventHandler interface
func (h *OrderEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.Topic {
	case events.OrderCreatedEvent:
		return h.HandleOrderCreated(ctx, event)
	default:
		// Not for us
		return nil
	}
}

// HandleOrderCreated opens a pending payment for the order
func (h *OrderEventHandlers) HandleOrderCreated(ctx context.Context, event *events.Event) error {
	var data OrderCreatedData
	if err := event.UnmarshalPayload(&data); err != nil {
		slog.ErrorContext(ctx, "dropping malformed order.created event",
			"event_id", event.ID.String(), "error", err)
		return nil
	}

	cmd := &application.InitiatePaymentCommand{
		OrderID: data.ID,
		UserID:  data.UserID,
		Amount:  data.TotalAmount,
	}

	if _, err := h.initiatePayment.Execute(ctx, cmd); err != nil {
		slog.ErrorContext(ctx, "failed to initiate payment for order",
			"order_id", data.ID, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "payment opened for order", "order_id", data.ID)
	return nil
}
