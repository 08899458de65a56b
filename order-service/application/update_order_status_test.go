package application

import (
	"context"
	"testing"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/order-service/mocks"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testOrder(t *testing.T, status domain.OrderStatus) *domain.Order {
	t.Helper()

	product := domain.PricedProduct{
		ID:    models.ID("550e8400-e29b-41d4-a716-446655440001"),
		Name:  "Product A",
		Price: models.NewMoney(1000, "USD"),
	}
	item, err := domain.NewOrderItem(product, 1)
	require.NoError(t, err)

	order, err := domain.CreateOrder(models.ID("550e8400-e29b-41d4-a716-446655440010"), []domain.OrderItem{item})
	require.NoError(t, err)
	order.Status = status
	order.ClearEvents()
	return order
}

func TestUpdateOrderStatus_Execute(t *testing.T) {
	validOrderID := "550e8400-e29b-41d4-a716-446655440020"

	tests := []struct {
		name          string
		command       *UpdateOrderStatusCommand
		setupMocks    func(*mocks.MockOrderRepository, *mocks.MockPublisher)
		expectedError error
	}{
		{
			name:    "pending to confirmed",
			command: &UpdateOrderStatusCommand{OrderID: validOrderID, Status: "CONFIRMED"},
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, models.ID(validOrderID)).
					Return(testOrder(t, domain.OrderStatusPending), nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
					return evt.Topic == events.OrderStatusUpdatedEvent
				})).Return(nil).Once()
			},
		},
		{
			name:    "unknown status",
			command: &UpdateOrderStatusCommand{OrderID: validOrderID, Status: "TELEPORTED"},
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				// No expectations - fails validation
			},
			expectedError: domain.ErrInvalidOrderState,
		},
		{
			name:    "order not found",
			command: &UpdateOrderStatusCommand{OrderID: validOrderID, Status: "CONFIRMED"},
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, models.ID(validOrderID)).Return(nil, nil).Once()
			},
			expectedError: domain.ErrOrderNotFound,
		},
		{
			name:    "delivered order rejects transition",
			command: &UpdateOrderStatusCommand{OrderID: validOrderID, Status: "SHIPPED"},
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, models.ID(validOrderID)).
					Return(testOrder(t, domain.OrderStatusDelivered), nil).Once()
			},
			expectedError: domain.ErrInvalidOrderState,
		},
		{
			name:    "cancelled order rejects transition",
			command: &UpdateOrderStatusCommand{OrderID: validOrderID, Status: "CONFIRMED"},
			setupMocks: func(repo *mocks.MockOrderRepository, publisher *mocks.MockPublisher) {
				repo.EXPECT().FindByID(mock.Anything, models.ID(validOrderID)).
					Return(testOrder(t, domain.OrderStatusCancelled), nil).Once()
			},
			expectedError: domain.ErrInvalidOrderState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockOrderRepository(t)
			publisher := mocks.NewMockPublisher(t)
			tt.setupMocks(repo, publisher)

			uc := NewUpdateOrderStatus(repo, publisher)
			err := uc.Execute(context.Background(), tt.command)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
		})
	}
}
