package domain

import "time"

// Outbox message kinds
const (
	OutboxKindEvent = "event" // Kafka integration event
	OutboxKindEmail = "email" // confirmation email intent
)

// Kafka topics for integration events
const (
	TopicTicketIssued   = "ticket.issued"
	TopicTicketRedeemed = "ticket.redeemed"
)

// OutboxMessage is one pending side effect written transactionally
// with the state change that caused it. A relay worker drains the
// table; external systems are never called from the request path.
type OutboxMessage struct {
	ID          int64      `json:"id"`
	Kind        string     `json:"kind"`
	Topic       string     `json:"topic,omitempty"`
	Key         string     `json:"key"`
	Payload     []byte     `json:"payload"`
	Attempts    int        `json:"attempts"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// TicketIssuedEvent is the ticket.issued integration event payload
type TicketIssuedEvent struct {
	TicketID   string    `json:"ticket_id"`
	EventID    string    `json:"event_id"`
	TypeName   string    `json:"type_name"`
	Price      int64     `json:"price"`
	UserID     string    `json:"user_id,omitempty"`
	IsGuest    bool      `json:"is_guest"`
	IssuedAt   time.Time `json:"issued_at"`
	SessionID  string    `json:"session_id,omitempty"`
}

// TicketRedeemedEvent is the ticket.redeemed integration event payload
type TicketRedeemedEvent struct {
	TicketID   string    `json:"ticket_id"`
	EventID    string    `json:"event_id"`
	TypeName   string    `json:"type_name"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// ConfirmationEmail is the payload of an email outbox intent
type ConfirmationEmail struct {
	To        string `json:"to"`
	Name      string `json:"name,omitempty"`
	TicketID  string `json:"ticket_id"`
	EventID   string `json:"event_id"`
	TypeName  string `json:"type_name"`
}
