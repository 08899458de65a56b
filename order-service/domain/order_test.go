package domain

import (
	"testing"

	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testUserID   = models.ID("550e8400-e29b-41d4-a716-446655440010")
	testProductA = models.ID("550e8400-e29b-41d4-a716-446655440001")
	testProductB = models.ID("550e8400-e29b-41d4-a716-446655440002")
)

func productA() PricedProduct {
	return PricedProduct{ID: testProductA, Name: "Product A", Price: models.NewMoney(1000, "USD")}
}

func productB() PricedProduct {
	return PricedProduct{ID: testProductB, Name: "Product B", Price: models.NewMoney(500, "USD")}
}

func TestNewOrderItem(t *testing.T) {
	item, err := NewOrderItem(productA(), 2)
	require.NoError(t, err)
	assert.Equal(t, testProductA, item.ProductID)
	assert.Equal(t, "Product A", item.ProductName)
	assert.Equal(t, int64(2000), item.Subtotal.Amount)

	_, err = NewOrderItem(productA(), 0)
	assert.ErrorIs(t, err, ErrInvalidOrderState)

	_, err = NewOrderItem(productA(), -1)
	assert.ErrorIs(t, err, ErrInvalidOrderState)

	unpriced := PricedProduct{ID: testProductA, Name: "Free"}
	_, err = NewOrderItem(unpriced, 1)
	assert.ErrorIs(t, err, ErrInvalidOrderState)
}

func TestCreateOrder(t *testing.T) {
	itemA, err := NewOrderItem(productA(), 2)
	require.NoError(t, err)
	itemB, err := NewOrderItem(productB(), 1)
	require.NoError(t, err)

	order, err := CreateOrder(testUserID, []OrderItem{itemA, itemB})
	require.NoError(t, err)

	// 2 x 10.00 + 1 x 5.00 = 25.00
	assert.Equal(t, int64(2500), order.TotalAmount.Amount)
	assert.Equal(t, "USD", order.TotalAmount.Currency)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Equal(t, PaymentStatusPending, order.PaymentStatus)
	assert.Empty(t, order.PaymentReferenceID)
	assert.Equal(t, 1, order.Version.Value)

	require.Len(t, order.Events(), 1)
	assert.Equal(t, events.OrderCreatedEvent, order.Events()[0].Topic)
}

func TestCreateOrder_NoItems(t *testing.T) {
	_, err := CreateOrder(testUserID, nil)
	assert.ErrorIs(t, err, ErrInvalidOrderState)
}

func TestOrder_UpdateStatus(t *testing.T) {
	tests := []struct {
		name        string
		from        OrderStatus
		to          OrderStatus
		expectError bool
	}{
		{"pending to confirmed", OrderStatusPending, OrderStatusConfirmed, false},
		{"confirmed to shipped", OrderStatusConfirmed, OrderStatusShipped, false},
		{"shipped to delivered", OrderStatusShipped, OrderStatusDelivered, false},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, false},
		{"delivered is terminal", OrderStatusDelivered, OrderStatusShipped, true},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusConfirmed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := newTestOrder(t)
			order.Status = tt.from
			order.ClearEvents()

			err := order.UpdateStatus(tt.to)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalidOrderState)
				assert.Equal(t, tt.from, order.Status)
				assert.Empty(t, order.Events())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.to, order.Status)
			require.Len(t, order.Events(), 1)
			assert.Equal(t, events.OrderStatusUpdatedEvent, order.Events()[0].Topic)
		})
	}
}

func TestOrder_RecordPaymentStatus(t *testing.T) {
	order := newTestOrder(t)
	order.ClearEvents()

	require.NoError(t, order.RecordPaymentStatus(PaymentStatusSuccess, "PAY-123"))
	assert.Equal(t, PaymentStatusSuccess, order.PaymentStatus)
	assert.Equal(t, "PAY-123", order.PaymentReferenceID)

	// Second SUCCESS is rejected and the original reference survives
	err := order.RecordPaymentStatus(PaymentStatusSuccess, "PAY-456")
	assert.ErrorIs(t, err, ErrPaymentUpdateConflict)
	assert.Equal(t, "PAY-123", order.PaymentReferenceID)
}

func TestOrder_RecordPaymentStatus_Failed(t *testing.T) {
	order := newTestOrder(t)
	order.ClearEvents()

	require.NoError(t, order.RecordPaymentStatus(PaymentStatusFailed, ""))
	assert.Equal(t, PaymentStatusFailed, order.PaymentStatus)
	assert.Empty(t, order.PaymentReferenceID)
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, status)

	_, err = ParseOrderStatus("TELEPORTED")
	assert.ErrorIs(t, err, ErrInvalidOrderState)
}

func TestNewOrderPayload(t *testing.T) {
	order := newTestOrder(t)
	payload := NewOrderPayload(order)

	assert.Equal(t, order.ID, payload.ID)
	assert.Equal(t, testUserID, payload.UserID)
	require.Len(t, payload.Items, 2)
	assert.Equal(t, testProductA, payload.Items[0].ProductID)
	assert.Equal(t, int64(2000), payload.Items[0].Subtotal.Amount)
	assert.Equal(t, int64(2500), payload.TotalAmount.Amount)
}

func newTestOrder(t *testing.T) *Order {
	t.Helper()

	itemA, err := NewOrderItem(productA(), 2)
	require.NoError(t, err)
	itemB, err := NewOrderItem(productB(), 1)
	require.NoError(t, err)

	order, err := CreateOrder(testUserID, []OrderItem{itemA, itemB})
	require.NoError(t, err)
	return order
}
