package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/draftea/order-system/shared/models"
)

var (
	ErrInvalidTopic   = errors.New("invalid topic")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Topic represents an event routing key with pattern matching support.
// Patterns follow AMQP topic semantics: "*" matches one segment, "#"
// matches any number of segments.
type Topic string

func NewTopic(topic string) (Topic, error) {
	if topic == "" {
		return "", ErrInvalidTopic
	}
	return Topic(topic), nil
}

func (t Topic) String() string {
	return string(t)
}

func (t Topic) Matches(pattern Topic) bool {
	return matchPattern(
		strings.Split(pattern.String(), "."),
		strings.Split(t.String(), "."),
	)
}

func matchPattern(patternParts, topicParts []string) bool {
	if len(patternParts) == 1 && patternParts[0] == "#" {
		return true
	}

	if len(patternParts) == 0 || len(topicParts) == 0 {
		return len(patternParts) == 0 && len(topicParts) == 0
	}

	if patternParts[0] == "*" || patternParts[0] == topicParts[0] {
		return matchPattern(patternParts[1:], topicParts[1:])
	}

	return false
}

// Metadata represents event metadata
type Metadata map[string]string

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m Metadata) Set(key string, value string) {
	m[key] = value
}

func (m Metadata) Clone() Metadata {
	clone := Metadata{}
	for k, v := range m {
		clone[k] = v
	}
	return clone
}

// Event is the envelope every message on the bus travels in. Data holds
// the payload struct on the producing side and a json.RawMessage after
// transport.
type Event struct {
	ID          models.ID       `json:"id"`
	AggregateID models.ID       `json:"aggregate_id"`
	Topic       Topic           `json:"topic"`
	Version     string          `json:"version"`
	Data        interface{}     `json:"data"`
	Metadata    Metadata        `json:"metadata"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Publisher publishes events
type Publisher interface {
	Publish(ctx context.Context, events ...*Event) error
}

// Subscriber delivers events from a durable queue to a handler
type Subscriber interface {
	Subscribe(ctx context.Context, handler EventHandler) error
}

// EventHandler handles domain events
type EventHandler interface {
	HandlerID() string
	Handle(ctx context.Context, event *Event) error
}

// EventHandlerFunc adapts a function to the EventHandler interface
type EventHandlerFunc struct {
	id string
	fn func(ctx context.Context, event *Event) error
}

func NewEventHandlerFunc(id string, fn func(ctx context.Context, event *Event) error) *EventHandlerFunc {
	return &EventHandlerFunc{id: id, fn: fn}
}

func (h *EventHandlerFunc) HandlerID() string {
	return h.id
}

func (h *EventHandlerFunc) Handle(ctx context.Context, event *Event) error {
	return h.fn(ctx, event)
}

// NewEvent creates a new domain event
func NewEvent(aggregateID models.ID, topic Topic, data interface{}) *Event {
	return &Event{
		ID:          models.GenerateUUID(),
		AggregateID: aggregateID,
		Topic:       topic,
		Version:     "1.0",
		Data:        data,
		Metadata:    make(Metadata),
		Timestamp:   time.Now().UTC(),
	}
}

// WithMetadata adds metadata
func (e *Event) WithMetadata(key string, value string) *Event {
	if e.Metadata == nil {
		e.Metadata = make(Metadata)
	}
	e.Metadata.Set(key, value)
	return e
}

// ToJSON converts event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON creates event from JSON
func FromJSON(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// MarshalPayload marshals the event payload
func (e *Event) MarshalPayload() (json.RawMessage, error) {
	switch d := e.Data.(type) {
	case []byte:
		return d, nil
	case json.RawMessage:
		return d, nil
	default:
		return json.Marshal(e.Data)
	}
}

// UnmarshalPayload unmarshals the event payload into the given receiver
func (e *Event) UnmarshalPayload(v interface{}) error {
	raw, err := e.MarshalPayload()
	if err != nil {
		return ErrInvalidPayload
	}
	return json.Unmarshal(raw, v)
}

// Routing keys. These are the contract between the services; the payload
// shapes live next to the aggregates that produce them.
const (
	// Order events
	OrderCreatedEvent       = Topic("order.created")
	OrderStatusUpdatedEvent = Topic("order.status.updated")

	// Payment events
	PaymentStatusEvent = Topic("payment.status")
)
