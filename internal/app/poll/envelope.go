package poll

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// EventType discriminates the closed set of notification events.
type EventType string

const (
	// EventMenuChanged is broadcast when dish availability or the menu changes.
	EventMenuChanged EventType = "menu_changed"

	// EventCartChanged notifies a user that the cart was modified from one of their sessions.
	EventCartChanged EventType = "cart_changed"

	// EventOrderChanged notifies a user that one of their orders was created or updated.
	EventOrderChanged EventType = "order_changed"
)

// Body is the event-specific payload of an Envelope.
// The set of implementations is closed: MenuChangedBody, CartChangedBody and OrderChangedBody.
type Body interface {
	Event() EventType
	sealed()
}

// MenuChangedBody carries no data; receivers refetch the menu.
type MenuChangedBody struct{}

// CartChangedBody carries no data; receivers refetch the cart.
type CartChangedBody struct{}

// OrderChangedBody identifies the order that changed.
type OrderChangedBody struct {
	OrderID int64 `json:"order_id"`
}

func (MenuChangedBody) Event() EventType  { return EventMenuChanged }
func (CartChangedBody) Event() EventType  { return EventCartChanged }
func (OrderChangedBody) Event() EventType { return EventOrderChanged }

func (MenuChangedBody) sealed()  {}
func (CartChangedBody) sealed()  {}
func (OrderChangedBody) sealed() {}

// Envelope is the notification delivered by completing a pending poll.
// Timestamp comes from the authoritative data source of the event, never from this package.
type Envelope struct {
	ID        string
	Timestamp int64
	Body      Body
}

// NewEnvelope builds an envelope for body with the given event timestamp.
func NewEnvelope(body Body, timestamp int64) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Timestamp: timestamp,
		Body:      body,
	}
}

// Event returns the discriminant of the envelope body.
func (e Envelope) Event() EventType {
	if e.Body == nil {
		return ""
	}
	return e.Body.Event()
}

type wireEnvelope struct {
	ID        string          `json:"id"`
	Event     EventType       `json:"event"`
	Timestamp int64           `json:"timestamp"`
	Body      json.RawMessage `json:"body,omitempty"`
}

// MarshalJSON encodes the envelope as {id, event, timestamp, body}. Bodies without fields are omitted.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Body == nil {
		return nil, fmt.Errorf("envelope %q has no body", e.ID)
	}

	w := wireEnvelope{
		ID:        e.ID,
		Event:     e.Body.Event(),
		Timestamp: e.Timestamp,
	}

	if b, ok := e.Body.(OrderChangedBody); ok {
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		w.Body = raw
	}

	return json.Marshal(w)
}

// UnmarshalJSON decodes an envelope, rejecting unknown events.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var body Body
	switch w.Event {
	case EventMenuChanged:
		body = MenuChangedBody{}
	case EventCartChanged:
		body = CartChangedBody{}
	case EventOrderChanged:
		var b OrderChangedBody
		if len(w.Body) == 0 {
			return fmt.Errorf("%s envelope without body", w.Event)
		}
		if err := json.Unmarshal(w.Body, &b); err != nil {
			return fmt.Errorf("invalid %s body: %w", w.Event, err)
		}
		body = b
	default:
		return fmt.Errorf("unknown event %q", w.Event)
	}

	*e = Envelope{
		ID:        w.ID,
		Timestamp: w.Timestamp,
		Body:      body,
	}

	return nil
}
