package application

import (
	"context"
	"testing"

	"github.com/draftea/order-system/payment-service/domain"
	"github.com/draftea/order-system/payment-service/mocks"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingPayment(t *testing.T, orderID string) *domain.Payment {
	t.Helper()

	payment, err := domain.InitiatePayment(
		models.ID(orderID),
		models.ID("550e8400-e29b-41d4-a716-446655440010"),
		models.NewMoney(2500, "USD"),
	)
	require.NoError(t, err)
	payment.ClearEvents()
	return payment
}

func TestSettlePayment_Execute(t *testing.T) {
	validOrderID := "550e8400-e29b-41d4-a716-446655440020"

	tests := []struct {
		name           string
		command        *SettlePaymentCommand
		setupMocks     func(*mocks.MockPaymentRepository, *mocks.MockPublisher)
		expectedError  error
		validateResult func(*domain.PaymentPayload)
	}{
		{
			name:    "successful settlement publishes payment.status",
			command: &SettlePaymentCommand{OrderID: validOrderID, Outcome: "SUCCESS"},
			setupMocks: func(repo *mocks.MockPaymentRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, models.ID(validOrderID)).
					Return(pendingPayment(t, validOrderID), nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.MatchedBy(func(p *domain.Payment) bool {
					return p.Status == domain.PaymentSuccess && p.PaymentReferenceID != ""
				})).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
					return evt.Topic == events.PaymentStatusEvent
				})).Return(nil).Once()
			},
			validateResult: func(result *domain.PaymentPayload) {
				assert.Equal(t, "SUCCESS", result.Status)
				assert.NotEmpty(t, result.PaymentReferenceID)
			},
		},
		{
			name:    "failed settlement carries no reference",
			command: &SettlePaymentCommand{OrderID: validOrderID, Outcome: "FAILED"},
			setupMocks: func(repo *mocks.MockPaymentRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, models.ID(validOrderID)).
					Return(pendingPayment(t, validOrderID), nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.Anything).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).Return(nil).Once()
			},
			validateResult: func(result *domain.PaymentPayload) {
				assert.Equal(t, "FAILED", result.Status)
				assert.Empty(t, result.PaymentReferenceID)
			},
		},
		{
			name:    "publish failure does not undo the settlement",
			command: &SettlePaymentCommand{OrderID: validOrderID, Outcome: "SUCCESS"},
			setupMocks: func(repo *mocks.MockPaymentRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, models.ID(validOrderID)).
					Return(pendingPayment(t, validOrderID), nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.Anything).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).
					Return(errors.New("broker gone")).Once()
			},
			validateResult: func(result *domain.PaymentPayload) {
				assert.Equal(t, "SUCCESS", result.Status)
			},
		},
		{
			name:    "payment not found",
			command: &SettlePaymentCommand{OrderID: validOrderID, Outcome: "SUCCESS"},
			setupMocks: func(repo *mocks.MockPaymentRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, models.ID(validOrderID)).Return(nil, nil).Once()
			},
			expectedError: domain.ErrPaymentNotFound,
		},
		{
			name:    "already settled",
			command: &SettlePaymentCommand{OrderID: validOrderID, Outcome: "SUCCESS"},
			setupMocks: func(repo *mocks.MockPaymentRepository, publisher *mocks.MockPublisher) {
				settled := pendingPayment(t, validOrderID)
				require.NoError(t, settled.Settle(domain.PaymentSuccess))
				settled.ClearEvents()
				repo.EXPECT().FindByOrderID(mock.Anything, models.ID(validOrderID)).Return(settled, nil).Once()
			},
			expectedError: domain.ErrPaymentAlreadySettled,
		},
		{
			name:    "pending is not an outcome",
			command: &SettlePaymentCommand{OrderID: validOrderID, Outcome: "PENDING"},
			setupMocks: func(repo *mocks.MockPaymentRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByOrderID(mock.Anything, models.ID(validOrderID)).
					Return(pendingPayment(t, validOrderID), nil).Once()
			},
			expectedError: domain.ErrInvalidPaymentState,
		},
		{
			name:    "unknown outcome",
			command: &SettlePaymentCommand{OrderID: validOrderID, Outcome: "REFUNDED"},
			setupMocks: func(repo *mocks.MockPaymentRepository, publisher *mocks.MockPublisher) {
				// No expectations - fails validation
			},
			expectedError: domain.ErrInvalidPaymentState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockPaymentRepository(t)
			publisher := mocks.NewMockPublisher(t)
			tt.setupMocks(repo, publisher)

			uc := NewSettlePayment(repo, publisher)
			result, err := uc.Execute(context.Background(), tt.command)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
				return
			}

			assert.NoError(t, err)
			tt.validateResult(result)
		})
	}
}
