package domain

import "time"

// EventType defines the type of real-time event.
type EventType string

const (
	EventTicketCreated  EventType = "TICKET_CREATED"
	EventTicketUpdated  EventType = "TICKET_UPDATED"
	EventTicketResolved EventType = "TICKET_RESOLVED"
	EventTicketDeleted  EventType = "TICKET_DELETED"
	EventPong           EventType = "PONG"
)

// Event is the payload sent to websocket clients and the message bus.
type Event struct {
	ID         string    `json:"id,omitempty"`
	Type       EventType `json:"type"`
	TicketID   int64     `json:"ticket_id,omitempty"` // routes the event to a ticket room
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
