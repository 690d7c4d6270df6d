package domain

import (
	"time"

	"github.com/google/uuid"
)

// TicketType is one sellable inventory bucket within an event.
// quantity + sold stays constant for the type's lifetime; there is no
// restocking.
type TicketType struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"` // minor units; 0 = free ticket
	Quantity int    `json:"quantity"`
	Sold     int    `json:"sold"`
}

// IsFree reports whether the type settles without payment
func (t *TicketType) IsFree() bool {
	return t.Price == 0
}

// Event aggregates ticket inventory for one organizer event.
// CurrentGuests is mutated only by purchase settlement.
type Event struct {
	ID            string       `json:"id"`
	TenantID      string       `json:"tenant_id"`
	Name          string       `json:"name"`
	TicketTypes   []TicketType `json:"ticket_types"`
	CurrentGuests int          `json:"current_guests"`
	GuestLimit    int          `json:"guest_limit"` // 0 = unbounded; informational, not enforced per type
	StartsAt      time.Time    `json:"starts_at"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewEvent creates an event with validated ticket types
func NewEvent(tenantID, name string, startsAt time.Time, guestLimit int, types []TicketType) (*Event, error) {
	if tenantID == "" {
		return nil, ErrInvalidTenantID
	}
	if name == "" {
		return nil, ErrInvalidEventName
	}
	if len(types) == 0 {
		return nil, ErrNoTicketTypes
	}
	if guestLimit < 0 {
		return nil, ErrInvalidGuestLimit
	}

	seen := make(map[string]struct{}, len(types))
	for _, tt := range types {
		if tt.Name == "" {
			return nil, ErrInvalidTicketTypeName
		}
		if _, dup := seen[tt.Name]; dup {
			return nil, ErrDuplicateTicketType
		}
		seen[tt.Name] = struct{}{}
		if tt.Price < 0 {
			return nil, ErrInvalidPrice
		}
		if tt.Quantity < 0 || tt.Sold != 0 {
			return nil, ErrInvalidQuantity
		}
	}

	now := time.Now().UTC()
	return &Event{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Name:        name,
		TicketTypes: types,
		GuestLimit:  guestLimit,
		StartsAt:    startsAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// TicketType returns the type with the given name, or nil
func (e *Event) TicketType(name string) *TicketType {
	for i := range e.TicketTypes {
		if e.TicketTypes[i].Name == name {
			return &e.TicketTypes[i]
		}
	}
	return nil
}
