package handlers

import (
	"context"
	"testing"

	"github.com/draftea/order-system/order-service/application"
	"github.com/draftea/order-system/order-service/domain"
	"github.com/draftea/order-system/order-service/mocks"
	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func paymentReconciler(repo *mocks.MockOrderRepository) *PaymentEventHandlers {
	return NewPaymentEventHandlers(application.NewUpdatePaymentStatus(repo))
}

func pendingOrder(t *testing.T) *domain.Order {
	t.Helper()

	product := domain.PricedProduct{
		ID:    models.ID("550e8400-e29b-41d4-a716-446655440001"),
		Name:  "Product A",
		Price: models.NewMoney(2500, "USD"),
	}
	item, err := domain.NewOrderItem(product, 1)
	require.NoError(t, err)

	order, err := domain.CreateOrder(models.ID("550e8400-e29b-41d4-a716-446655440010"), []domain.OrderItem{item})
	require.NoError(t, err)
	order.ClearEvents()
	return order
}

func TestPaymentEventHandlers_HandlePaymentStatus(t *testing.T) {
	orderID := "550e8400-e29b-41d4-a716-446655440020"

	repo := mocks.NewMockOrderRepository(t)
	repo.EXPECT().FindByID(mock.Anything, models.ID(orderID)).Return(pendingOrder(t), nil).Once()
	repo.EXPECT().Save(mock.Anything, mock.MatchedBy(func(order *domain.Order) bool {
		return order.PaymentStatus == domain.PaymentStatusSuccess &&
			order.PaymentReferenceID == "PAY-123"
	})).Return(nil).Once()

	event := events.NewEvent(models.ID(orderID), events.PaymentStatusEvent, PaymentStatusData{
		OrderID:            orderID,
		UserID:             "550e8400-e29b-41d4-a716-446655440010",
		Status:             "SUCCESS",
		PaymentReferenceID: "PAY-123",
	})

	err := paymentReconciler(repo).Handle(context.Background(), event)
	assert.NoError(t, err)
}

// Malformed payloads are dropped, never returned as errors: an error
// would requeue a message that can never succeed.
func TestPaymentEventHandlers_MalformedPayloadDropped(t *testing.T) {
	repo := mocks.NewMockOrderRepository(t)

	event := events.NewEvent(models.GenerateUUID(), events.PaymentStatusEvent,
		[]byte(`{"orderId": 42`))

	err := paymentReconciler(repo).Handle(context.Background(), event)
	assert.NoError(t, err)
}

// Guard violations are logged and swallowed too: the message was
// delivered, the aggregate just refuses it.
func TestPaymentEventHandlers_GuardViolationDropped(t *testing.T) {
	orderID := "550e8400-e29b-41d4-a716-446655440020"

	order := pendingOrder(t)
	require.NoError(t, order.RecordPaymentStatus(domain.PaymentStatusSuccess, "PAY-123"))
	order.ClearEvents()

	repo := mocks.NewMockOrderRepository(t)
	repo.EXPECT().FindByID(mock.Anything, models.ID(orderID)).Return(order, nil).Once()

	event := events.NewEvent(models.ID(orderID), events.PaymentStatusEvent, PaymentStatusData{
		OrderID:            orderID,
		Status:             "SUCCESS",
		PaymentReferenceID: "PAY-456",
	})

	err := paymentReconciler(repo).Handle(context.Background(), event)
	assert.NoError(t, err)
	assert.Equal(t, "PAY-123", order.PaymentReferenceID)
}

func TestPaymentEventHandlers_IgnoresOtherTopics(t *testing.T) {
	repo := mocks.NewMockOrderRepository(t)

	event := events.NewEvent(models.GenerateUUID(), events.OrderCreatedEvent, nil)

	err := paymentReconciler(repo).Handle(context.Background(), event)
	assert.NoError(t, err)
}
