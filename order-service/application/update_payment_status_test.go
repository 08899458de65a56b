package application

import (
	"context"
	"testing"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/order-service/mocks"
	"github.com/draftea/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUpdatePaymentStatus_Execute(t *testing.T) {
	validOrderID := "550e8400-e29b-41d4-a716-446655440020"

	tests := []struct {
		name          string
		command       *UpdatePaymentStatusCommand
		setupMocks    func(*mocks.MockOrderRepository)
		expectedError error
	}{
		{
			name:    "successful settlement recorded",
			command: &UpdatePaymentStatusCommand{OrderID: validOrderID, Status: "SUCCESS", ReferenceID: "PAY-123"},
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByID(mock.Anything, models.ID(validOrderID)).
					Return(testOrder(t, domain.OrderStatusPending), nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.MatchedBy(func(order *domain.Order) bool {
					return order.PaymentStatus == domain.PaymentStatusSuccess &&
						order.PaymentReferenceID == "PAY-123"
				})).Return(nil).Once()
			},
		},
		{
			name:    "failed settlement recorded",
			command: &UpdatePaymentStatusCommand{OrderID: validOrderID, Status: "FAILED"},
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByID(mock.Anything, models.ID(validOrderID)).
					Return(testOrder(t, domain.OrderStatusPending), nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.MatchedBy(func(order *domain.Order) bool {
					return order.PaymentStatus == domain.PaymentStatusFailed
				})).Return(nil).Once()
			},
		},
		{
			name:    "unknown status",
			command: &UpdatePaymentStatusCommand{OrderID: validOrderID, Status: "MAYBE"},
			setupMocks: func(repo *mocks.MockOrderRepository) {
				// No expectations - fails validation
			},
			expectedError: domain.ErrInvalidOrderState,
		},
		{
			name:    "order not found",
			command: &UpdatePaymentStatusCommand{OrderID: validOrderID, Status: "SUCCESS", ReferenceID: "PAY-123"},
			setupMocks: func(repo *mocks.MockOrderRepository) {
				repo.EXPECT().FindByID(mock.Anything, models.ID(validOrderID)).Return(nil, nil).Once()
			},
			expectedError: domain.ErrOrderNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockOrderRepository(t)
			tt.setupMocks(repo)

			uc := NewUpdatePaymentStatus(repo)
			err := uc.Execute(context.Background(), tt.command)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
		})
	}
}

// A redelivered SUCCESS must not overwrite the settlement reference the
// first delivery assigned.
func TestUpdatePaymentStatus_DuplicateSuccess(t *testing.T) {
	validOrderID := "550e8400-e29b-41d4-a716-446655440020"

	order := testOrder(t, domain.OrderStatusPending)
	require.NoError(t, order.RecordPaymentStatus(domain.PaymentStatusSuccess, "PAY-123"))
	order.ClearEvents()

	repo := mocks.NewMockOrderRepository(t)
	repo.EXPECT().FindByID(mock.Anything, models.ID(validOrderID)).Return(order, nil).Once()

	uc := NewUpdatePaymentStatus(repo)
	err := uc.Execute(context.Background(), &UpdatePaymentStatusCommand{
		OrderID:     validOrderID,
		Status:      "SUCCESS",
		ReferenceID: "PAY-456",
	})

	assert.ErrorIs(t, err, domain.ErrPaymentUpdateConflict)
	assert.Equal(t, "PAY-123", order.PaymentReferenceID)
}
