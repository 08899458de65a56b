package domain

import (
	"context"
	"strings"
	"time"

	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
)

// Payment errors
var (
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrInvalidPaymentState   = errors.New("invalid payment state")
	ErrPaymentAlreadySettled = errors.New("payment already settled")
	ErrDuplicatePayment      = errors.New("payment already exists for order")
	ErrConcurrentUpdate      = errors.New("payment was modified concurrently")
)

// PaymentStatus represents the settlement state of a payment
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentSuccess PaymentStatus = "SUCCESS"
	PaymentFailed  PaymentStatus = "FAILED"
)

// ParsePaymentStatus validates a raw status string
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch PaymentStatus(strings.ToUpper(raw)) {
	case PaymentPending:
		return PaymentPending, nil
	case PaymentSuccess:
		return PaymentSuccess, nil
	case PaymentFailed:
		return PaymentFailed, nil
	default:
		return "", errors.Wrapf(ErrInvalidPaymentState, "unknown payment status %q", raw)
	}
}

// IsTerminal reports whether the status admits no further transitions
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

// paymentInitiatedEvent marks the aggregate as freshly created so the
// repository knows to insert. It is never published.
const paymentInitiatedEvent = events.Topic("payment.initiated")

// Payment represents one settlement attempt for an order. There is at
// most one payment per order: the order ID doubles as the idempotency
// key under redelivered order.created events.
type Payment struct {
	ID                 models.ID
	OrderID            models.ID
	UserID             models.ID
	Amount             models.Money
	Status             PaymentStatus
	PaymentReferenceID string
	Timestamps         models.Timestamps
	Version            models.Version

	events []*events.Event
}

// InitiatePayment creates a pending payment for an order
func InitiatePayment(orderID, userID models.ID, amount models.Money) (*Payment, error) {
	if orderID.IsEmpty() {
		return nil, errors.Wrap(ErrInvalidPaymentState, "order ID is required")
	}
	if userID.IsEmpty() {
		return nil, errors.Wrap(ErrInvalidPaymentState, "user ID is required")
	}
	if !amount.IsPositive() {
		return nil, errors.Wrapf(ErrInvalidPaymentState, "amount must be positive, got %d", amount.Amount)
	}

	payment := &Payment{
		ID:         models.GenerateUUID(),
		OrderID:    orderID,
		UserID:     userID,
		Amount:     amount,
		Status:     PaymentPending,
		Timestamps: models.NewTimestamps(),
		Version:    models.NewVersion(),
	}

	payment.recordEvent(paymentInitiatedEvent, nil)
	return payment, nil
}

// Settle moves a pending payment to its terminal outcome. Only the first
// settlement wins; a settled payment rejects any further attempt, which
// keeps the operation idempotent-safe under retried requests.
func (p *Payment) Settle(outcome PaymentStatus) error {
	if !outcome.IsTerminal() {
		return errors.Wrapf(ErrInvalidPaymentState, "settlement outcome must be terminal, got %s", outcome)
	}
	if p.Status != PaymentPending {
		return errors.Wrapf(ErrPaymentAlreadySettled, "payment %s is %s", p.ID, p.Status)
	}

	p.Status = outcome
	if outcome == PaymentSuccess {
		p.PaymentReferenceID = "PAY-" + models.GenerateUUID().String()
	}
	p.Timestamps = p.Timestamps.Update()
	p.Version = p.Version.Update()

	payload := NewPaymentStatusPayload(p)
	p.recordEvent(events.PaymentStatusEvent, payload)
	return nil
}

// Events returns recorded domain events
func (p *Payment) Events() []*events.Event {
	return p.events
}

// ClearEvents clears recorded events after they are dispatched
func (p *Payment) ClearEvents() {
	p.events = nil
}

func (p *Payment) recordEvent(topic events.Topic, data interface{}) {
	event := events.NewEvent(p.ID, topic, data)
	p.events = append(p.events, event)
}

// PaymentStatusPayload is the payment.status wire shape consumed by the
// order service
type PaymentStatusPayload struct {
	OrderID            string       `json:"orderId"`
	UserID             string       `json:"userId"`
	Amount             models.Money `json:"amount"`
	Status             string       `json:"status"`
	PaymentReferenceID string       `json:"paymentReferenceId,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// NewPaymentStatusPayload builds the payment.status payload
func NewPaymentStatusPayload(p *Payment) PaymentStatusPayload {
	return PaymentStatusPayload{
		OrderID:            p.OrderID.String(),
		UserID:             p.UserID.String(),
		Amount:             p.Amount,
		Status:             string(p.Status),
		PaymentReferenceID: p.PaymentReferenceID,
		CreatedAt:          p.Timestamps.CreatedAt,
		UpdatedAt:          p.Timestamps.UpdatedAt,
	}
}

// PaymentPayload is the HTTP response shape
type PaymentPayload struct {
	ID                 string       `json:"id"`
	OrderID            string       `json:"orderId"`
	UserID             string       `json:"userId"`
	Amount             models.Money `json:"amount"`
	Status             string       `json:"status"`
	PaymentReferenceID string       `json:"paymentReferenceId,omitempty"`
	CreatedAt          time.Time    `json:"createdAt"`
	UpdatedAt          time.Time    `json:"updatedAt"`
}

// NewPaymentPayload builds the HTTP payload for a payment
func NewPaymentPayload(p *Payment) PaymentPayload {
	return PaymentPayload{
		ID:                 p.ID.String(),
		OrderID:            p.OrderID.String(),
		UserID:             p.UserID.String(),
		Amount:             p.Amount,
		Status:             string(p.Status),
		PaymentReferenceID: p.PaymentReferenceID,
		CreatedAt:          p.Timestamps.CreatedAt,
		UpdatedAt:          p.Timestamps.UpdatedAt,
	}
}

// PaymentRepository defines payment persistence. FindByID, FindByOrderID
// and FindByReferenceID return (nil, nil) when no payment matches.
type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id models.ID) (*Payment, error)
	FindByOrderID(ctx context.Context, orderID models.ID) (*Payment, error)
	FindByReferenceID(ctx context.Context, referenceID string) (*Payment, error)
	FindAll(ctx context.Context) ([]*Payment, error)
}
