package events

import (
	"testing"

	"github.com/draftea/order-system/shared/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopic_Matches(t *testing.T) {
	tests := []struct {
		name    string
		topic   Topic
		pattern Topic
		matches bool
	}{
		{"exact match", "order.created", "order.created", true},
		{"exact mismatch", "order.created", "payment.status", false},
		{"single wildcard", "order.created", "order.*", true},
		{"single wildcard wrong depth", "order.status.updated", "order.*", false},
		{"hash matches everything", "order.status.updated", "#", true},
		{"middle wildcard", "order.status.updated", "order.*.updated", true},
		{"prefix without wildcard", "order.created", "order", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.topic.Matches(tt.pattern))
		})
	}
}

func TestNewTopic(t *testing.T) {
	_, err := NewTopic("")
	assert.ErrorIs(t, err, ErrInvalidTopic)

	topic, err := NewTopic("order.created")
	require.NoError(t, err)
	assert.Equal(t, "order.created", topic.String())
}

type testPayload struct {
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
}

func TestEvent_JSONRoundTrip(t *testing.T) {
	aggregateID := models.GenerateUUID()
	original := NewEvent(aggregateID, OrderCreatedEvent, testPayload{
		OrderID: aggregateID.String(),
		Amount:  2500,
	})
	original.WithMetadata("source", "order-service")

	data, err := original.ToJSON()
	require.NoError(t, err)

	decoded, err := FromJSON(data)
	require.NoError(t, err)

	assert.Equal(t, original.ID, decoded.ID)
	assert.Equal(t, aggregateID, decoded.AggregateID)
	assert.Equal(t, OrderCreatedEvent, decoded.Topic)
	assert.Equal(t, "1.0", decoded.Version)

	source, ok := decoded.Metadata.Get("source")
	require.True(t, ok)
	assert.Equal(t, "order-service", source)

	// The payload survives transport even though Data decodes untyped
	var payload testPayload
	require.NoError(t, decoded.UnmarshalPayload(&payload))
	assert.Equal(t, aggregateID.String(), payload.OrderID)
	assert.Equal(t, int64(2500), payload.Amount)
}

func TestFromJSON_Malformed(t *testing.T) {
	_, err := FromJSON([]byte("{not json"))
	assert.Error(t, err)
}

func TestEvent_UnmarshalPayload_RawBytes(t *testing.T) {
	event := NewEvent(models.GenerateUUID(), PaymentStatusEvent,
		[]byte(`{"orderId":"abc","amount":100}`))

	var payload testPayload
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, "abc", payload.OrderID)
	assert.Equal(t, int64(100), payload.Amount)
}
