package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a fact about one payment order.
type Event interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	// OrderID is the payment order the event belongs to.
	OrderID() uuid.UUID
}

// Header carries the fields shared by every payment event. Concrete events
// embed it and are serialized flat.
type Header struct {
	ID        uuid.UUID `json:"event_id"`
	Type      string    `json:"event_type"`
	Timestamp time.Time `json:"occurred_at"`
	Order     uuid.UUID `json:"order_id"`
}

func (h Header) EventID() uuid.UUID    { return h.ID }
func (h Header) EventType() string     { return h.Type }
func (h Header) OccurredAt() time.Time { return h.Timestamp }
func (h Header) OrderID() uuid.UUID    { return h.Order }

func newHeader(eventType string, orderID uuid.UUID) Header {
	return Header{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Order:     orderID,
	}
}
