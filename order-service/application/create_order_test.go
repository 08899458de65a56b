package application

import (
	"context"
	"testing"

	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/order-service/mocks"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateOrder_Execute(t *testing.T) {
	// Test data
	validUserID := "550e8400-e29b-41d4-a716-446655440010"
	productAID := "550e8400-e29b-41d4-a716-446655440001"
	productBID := "550e8400-e29b-41d4-a716-446655440002"

	productA := &domain.PricedProduct{
		ID:    models.ID(productAID),
		Name:  "Product A",
		Price: models.NewMoney(1000, "USD"),
	}
	productB := &domain.PricedProduct{
		ID:    models.ID(productBID),
		Name:  "Product B",
		Price: models.NewMoney(500, "USD"),
	}

	tests := []struct {
		name           string
		command        *CreateOrderCommand
		setupMocks     func(*mocks.MockOrderRepository, *mocks.MockProductFinder, *mocks.MockPublisher)
		expectedError  error
		validateResult func(*domain.OrderPayload)
	}{
		{
			name: "successful order with two products",
			command: &CreateOrderCommand{
				UserID: validUserID,
				Items: []CreateOrderItemRequest{
					{ProductID: productAID, Quantity: 2},
					{ProductID: productBID, Quantity: 1},
				},
				BearerToken: "token-123",
			},
			setupMocks: func(repo *mocks.MockOrderRepository, finder *mocks.MockProductFinder, publisher *mocks.MockPublisher) {
				finder.EXPECT().FindByID(mock.Anything, models.ID(productAID), "token-123").Return(productA, nil).Once()
				finder.EXPECT().FindByID(mock.Anything, models.ID(productBID), "token-123").Return(productB, nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.MatchedBy(func(evt *events.Event) bool {
					return evt.Topic == events.OrderCreatedEvent
				})).Return(nil).Once()
			},
			validateResult: func(result *domain.OrderPayload) {
				// 2 x 10.00 + 1 x 5.00 = 25.00
				assert.Equal(t, int64(2500), result.TotalAmount.Amount)
				assert.Equal(t, domain.OrderStatusPending, result.Status)
				assert.Equal(t, domain.PaymentStatusPending, result.PaymentStatus)
				assert.Len(t, result.Items, 2)
			},
		},
		{
			name: "no items",
			command: &CreateOrderCommand{
				UserID: validUserID,
				Items:  []CreateOrderItemRequest{},
			},
			setupMocks: func(repo *mocks.MockOrderRepository, finder *mocks.MockProductFinder, publisher *mocks.MockPublisher) {
				// No expectations - fails validation
			},
			expectedError: domain.ErrInvalidOrderState,
		},
		{
			name: "invalid user ID",
			command: &CreateOrderCommand{
				UserID: "user-42",
				Items:  []CreateOrderItemRequest{{ProductID: productAID, Quantity: 1}},
			},
			setupMocks: func(repo *mocks.MockOrderRepository, finder *mocks.MockProductFinder, publisher *mocks.MockPublisher) {
			},
			expectedError: domain.ErrInvalidOrderState,
		},
		{
			name: "zero quantity",
			command: &CreateOrderCommand{
				UserID: validUserID,
				Items:  []CreateOrderItemRequest{{ProductID: productAID, Quantity: 0}},
			},
			setupMocks: func(repo *mocks.MockOrderRepository, finder *mocks.MockProductFinder, publisher *mocks.MockPublisher) {
			},
			expectedError: domain.ErrInvalidOrderState,
		},
		{
			name: "unknown product",
			command: &CreateOrderCommand{
				UserID: validUserID,
				Items:  []CreateOrderItemRequest{{ProductID: productAID, Quantity: 1}},
			},
			setupMocks: func(repo *mocks.MockOrderRepository, finder *mocks.MockProductFinder, publisher *mocks.MockPublisher) {
				finder.EXPECT().FindByID(mock.Anything, models.ID(productAID), "").
					Return(nil, errors.New("404")).Once()
			},
			expectedError: domain.ErrInvalidOrderState,
		},
		{
			name: "product service down",
			command: &CreateOrderCommand{
				UserID: validUserID,
				Items:  []CreateOrderItemRequest{{ProductID: productAID, Quantity: 1}},
			},
			setupMocks: func(repo *mocks.MockOrderRepository, finder *mocks.MockProductFinder, publisher *mocks.MockPublisher) {
				finder.EXPECT().FindByID(mock.Anything, models.ID(productAID), "").
					Return(nil, errors.Wrap(domain.ErrProductUnavailable, "connection refused")).Once()
			},
			expectedError: domain.ErrProductUnavailable,
		},
		{
			name: "save fails",
			command: &CreateOrderCommand{
				UserID: validUserID,
				Items:  []CreateOrderItemRequest{{ProductID: productAID, Quantity: 1}},
			},
			setupMocks: func(repo *mocks.MockOrderRepository, finder *mocks.MockProductFinder, publisher *mocks.MockPublisher) {
				finder.EXPECT().FindByID(mock.Anything, models.ID(productAID), "").Return(productA, nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Order")).
					Return(errors.New("db down")).Once()
			},
			expectedError: nil, // wrapped infrastructure error, asserted below
		},
		{
			name: "publish fails after persist",
			command: &CreateOrderCommand{
				UserID: validUserID,
				Items:  []CreateOrderItemRequest{{ProductID: productAID, Quantity: 1}},
			},
			setupMocks: func(repo *mocks.MockOrderRepository, finder *mocks.MockProductFinder, publisher *mocks.MockPublisher) {
				finder.EXPECT().FindByID(mock.Anything, models.ID(productAID), "").Return(productA, nil).Once()
				repo.EXPECT().Save(mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil).Once()
				publisher.EXPECT().Publish(mock.Anything, mock.Anything).
					Return(errors.New("broker gone")).Once()
			},
			expectedError: domain.ErrInvalidOrderState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := mocks.NewMockOrderRepository(t)
			finder := mocks.NewMockProductFinder(t)
			publisher := mocks.NewMockPublisher(t)
			tt.setupMocks(repo, finder, publisher)

			uc := NewCreateOrder(repo, finder, publisher)
			result, err := uc.Execute(context.Background(), tt.command)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
				return
			}
			if tt.validateResult == nil {
				assert.Error(t, err)
				assert.Nil(t, result)
				return
			}

			assert.NoError(t, err)
			tt.validateResult(result)
		})
	}
}
