package domain

import (
	"time"
)

// Ticket is one issued admission record, created atomically with its
// inventory decrement.
type Ticket struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	TypeName     string     `json:"type_name"`
	Price        int64      `json:"price"` // amount actually charged at purchase time
	PurchaseDate time.Time  `json:"purchase_date"`
	UserID       string     `json:"user_id,omitempty"` // empty for guest purchases
	IsGuest      bool       `json:"is_guest"`
	GuestEmail   string     `json:"guest_email,omitempty"`
	GuestName    string     `json:"guest_name,omitempty"`
	SessionID    string     `json:"session_id,omitempty"` // payment session; empty for free tickets
	Used         bool       `json:"used"`
	ScannedAt    *time.Time `json:"scanned_at,omitempty"`
}

// ContactEmail returns the address confirmation mail goes to
func (t *Ticket) ContactEmail() string {
	return t.GuestEmail
}

// GuestProfile accumulates a guest buyer's tickets across events,
// keyed by contact email.
type GuestProfile struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	TicketIDs []string  `json:"ticket_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScanResult is the tri-state outcome of a redemption attempt
type ScanResult string

const (
	ScanValidated   ScanResult = "validated"
	ScanAlreadyUsed ScanResult = "already_used"
	ScanWrongEvent  ScanResult = "wrong_event"
)
