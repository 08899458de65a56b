package domain

import (
	"testing"

	"github.com/draftea/order-system/shared/events"
	"github.com/draftea/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testOrderID = models.ID("550e8400-e29b-41d4-a716-446655440020")
	testUserID  = models.ID("550e8400-e29b-41d4-a716-446655440010")
)

func TestInitiatePayment(t *testing.T) {
	payment, err := InitiatePayment(testOrderID, testUserID, models.NewMoney(2500, "USD"))
	require.NoError(t, err)

	assert.Equal(t, testOrderID, payment.OrderID)
	assert.Equal(t, testUserID, payment.UserID)
	assert.Equal(t, int64(2500), payment.Amount.Amount)
	assert.Equal(t, PaymentPending, payment.Status)
	assert.Empty(t, payment.PaymentReferenceID)
	assert.Equal(t, 1, payment.Version.Value)
	require.Len(t, payment.Events(), 1)
}

func TestInitiatePayment_Validation(t *testing.T) {
	_, err := InitiatePayment("", testUserID, models.NewMoney(100, "USD"))
	assert.ErrorIs(t, err, ErrInvalidPaymentState)

	_, err = InitiatePayment(testOrderID, "", models.NewMoney(100, "USD"))
	assert.ErrorIs(t, err, ErrInvalidPaymentState)

	_, err = InitiatePayment(testOrderID, testUserID, models.NewMoney(0, "USD"))
	assert.ErrorIs(t, err, ErrInvalidPaymentState)

	_, err = InitiatePayment(testOrderID, testUserID, models.NewMoney(-100, "USD"))
	assert.ErrorIs(t, err, ErrInvalidPaymentState)
}

func TestPayment_Settle_Success(t *testing.T) {
	payment := newPendingPayment(t)

	require.NoError(t, payment.Settle(PaymentSuccess))

	assert.Equal(t, PaymentSuccess, payment.Status)
	assert.NotEmpty(t, payment.PaymentReferenceID, "success assigns a settlement reference")
	assert.Equal(t, 2, payment.Version.Value)

	require.Len(t, payment.Events(), 1)
	event := payment.Events()[0]
	assert.Equal(t, events.PaymentStatusEvent, event.Topic)

	payload, ok := event.Data.(PaymentStatusPayload)
	require.True(t, ok)
	assert.Equal(t, testOrderID.String(), payload.OrderID)
	assert.Equal(t, "SUCCESS", payload.Status)
	assert.Equal(t, payment.PaymentReferenceID, payload.PaymentReferenceID)
}

func TestPayment_Settle_Failed(t *testing.T) {
	payment := newPendingPayment(t)

	require.NoError(t, payment.Settle(PaymentFailed))

	assert.Equal(t, PaymentFailed, payment.Status)
	assert.Empty(t, payment.PaymentReferenceID, "failure never assigns a reference")
}

func TestPayment_Settle_Guards(t *testing.T) {
	payment := newPendingPayment(t)

	// PENDING is not a settlement outcome
	err := payment.Settle(PaymentPending)
	assert.ErrorIs(t, err, ErrInvalidPaymentState)

	require.NoError(t, payment.Settle(PaymentSuccess))
	reference := payment.PaymentReferenceID

	// First settlement wins; retries are conflicts and the reference survives
	err = payment.Settle(PaymentSuccess)
	assert.ErrorIs(t, err, ErrPaymentAlreadySettled)
	err = payment.Settle(PaymentFailed)
	assert.ErrorIs(t, err, ErrPaymentAlreadySettled)
	assert.Equal(t, reference, payment.PaymentReferenceID)
}

func TestParsePaymentStatus(t *testing.T) {
	status, err := ParsePaymentStatus("success")
	require.NoError(t, err)
	assert.Equal(t, PaymentSuccess, status)

	_, err = ParsePaymentStatus("REFUNDED")
	assert.ErrorIs(t, err, ErrInvalidPaymentState)
}

func newPendingPayment(t *testing.T) *Payment {
	t.Helper()

	payment, err := InitiatePayment(testOrderID, testUserID, models.NewMoney(2500, "USD"))
	require.NoError(t, err)
	payment.ClearEvents()
	return payment
}
