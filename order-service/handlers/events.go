package handlers

import (
	"context"
	"log/slog"

	"github.com/draftea/order-system/order-service/application"
	"github.com/draftea/order-system/shared/events"
)

// PaymentStatusData is the payment.status payload shape the reconciler
// consumes
type PaymentStatusData struct {
	OrderID            string `json:"orderId"`
	UserID             string `json:"userId"`
	Status             string `json:"status"`
	PaymentReferenceID string `json:"paymentReferenceId"`
}

// PaymentEventHandlers reconciles payment outcomes onto orders. Handler
// errors never propagate: a malformed payload or a guard violation is
// logged and the message dropped, so a poison message cannot wedge the
// consumer loop.
type PaymentEventHandlers struct {
	updatePaymentStatus *application.UpdatePaymentStatus
}

// NewPaymentEventHandlers creates the payment.status reconciler
func NewPaymentEventHandlers(updatePaymentStatus *application.UpdatePaymentStatus) *PaymentEventHandlers {
	return &PaymentEventHandlers{
		updatePaymentStatus: updatePaymentStatus,
	}
}

// HandlerID returns the unique identifier for this event handler
func (h *PaymentEventHandlers) HandlerID() string {
	return "order-service-payment-reconciler"
}

// Handle implements the events.EventHandler interface
func (h *PaymentEventHandlers) Handle(ctx context.Context, event *events.Event) error {
	switch event.Topic {
	case events.PaymentStatusEvent:
		return h.HandlePaymentStatus(ctx, event)
	default:
		// Not for us
		return nil
	}
}

// HandlePaymentStatus applies a settlement outcome to the referenced order
func (h *PaymentEventHandlers) HandlePaymentStatus(ctx context.Context, event *events.Event) error {
	var data PaymentStatusData
	if err := event.UnmarshalPayload(&data); err != nil {
		slog.ErrorContext(ctx, "dropping malformed payment.status event",
			"event_id", event.ID.String(), "error", err)
		return nil
	}

	cmd := &application.UpdatePaymentStatusCommand{
		OrderID:     data.OrderID,
		Status:      data.Status,
		ReferenceID: data.PaymentReferenceID,
	}

	if err := h.updatePaymentStatus.Execute(ctx, cmd); err != nil {
		slog.ErrorContext(ctx, "failed to apply payment status to order",
			"order_id", data.OrderID, "status", data.Status, "error", err)
		return nil
	}

	slog.InfoContext(ctx, "order payment status reconciled",
		"order_id", data.OrderID, "status", data.Status)
	return nil
}
