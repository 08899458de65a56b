package application

import (
	"context"

	"github.com/draftea/order-system/payment-service/domain"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
)

// GetPaymentQuery fetches a payment by its ID
type GetPaymentQuery struct {
	PaymentID string
}

// GetPayment use case
type GetPayment struct {
	paymentRepository domain.PaymentRepository
}

// NewGetPayment creates a new GetPayment use case
func NewGetPayment(paymentRepository domain.PaymentRepository) *GetPayment {
	return &GetPayment{
		paymentRepository: paymentRepository,
	}
}

// Execute executes the get payment use case
func (uc *GetPayment) Execute(ctx context.Context, query *GetPaymentQuery) (*domain.PaymentPayload, error) {
	paymentID, err := models.NewID(query.PaymentID)
	if err != nil {
		return nil, errors.Wrap(domain.ErrInvalidPaymentState, "invalid payment ID")
	}

	payment, err := uc.paymentRepository.FindByID(ctx, paymentID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find payment")
	}
	if payment == nil {
		return nil, errors.Wrapf(domain.ErrPaymentNotFound, "payment %s", paymentID)
	}

	payload := domain.NewPaymentPayload(payment)
	return &payload, nil
}

// GetPaymentByReferenceQuery fetches a payment by its settlement reference
type GetPaymentByReferenceQuery struct {
	ReferenceID string
}

// GetPaymentByReference use case
type GetPaymentByReference struct {
	paymentRepository domain.PaymentRepository
}

// NewGetPaymentByReference creates a new GetPaymentByReference use case
func NewGetPaymentByReference(paymentRepository domain.PaymentRepository) *GetPaymentByReference {
	return &GetPaymentByReference{
		paymentRepository: paymentRepository,
	}
}

// Execute executes the reference lookup
func (uc *GetPaymentByReference) Execute(ctx context.Context, query *GetPaymentByReferenceQuery) (*domain.PaymentPayload, error) {
	if query.ReferenceID == "" {
		return nil, errors.Wrap(domain.ErrInvalidPaymentState, "reference ID is required")
	}

	payment, err := uc.paymentRepository.FindByReferenceID(ctx, query.ReferenceID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find payment")
	}
	if payment == nil {
		return nil, errors.Wrapf(domain.ErrPaymentNotFound, "reference %s", query.ReferenceID)
	}

	payload := domain.NewPaymentPayload(payment)
	return &payload, nil
}

// ListPayments use case
type ListPayments struct {
	paymentRepository domain.PaymentRepository
}

// NewListPayments creates a new ListPayments use case
func NewListPayments(paymentRepository domain.PaymentRepository) *ListPayments {
	return &ListPayments{
		paymentRepository: paymentRepository,
	}
}

// Execute lists all payments
func (uc *ListPayments) Execute(ctx context.Context) ([]domain.PaymentPayload, error) {
	payments, err := uc.paymentRepository.FindAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list payments")
	}

	payloads := make([]domain.PaymentPayload, len(payments))
	for i, payment := range payments {
		payloads[i] = domain.NewPaymentPayload(payment)
	}
	return payloads, nil
}
