package repository

import (
	"context"
	"time"

	"github.com/eventease/ticketing/internal/domain"
)

// SettleParams carries everything needed to settle one purchase
// atomically. TicketID is generated by the caller so the whole
// settlement can be written in one transaction.
type SettleParams struct {
	TicketID   string
	EventID    string
	TypeName   string
	UserID     string
	GuestEmail string
	GuestName  string
	IsGuest    bool
	SessionID  string // payment session; empty for free tickets
	Now        time.Time
}

// InventoryRepository is the event/inventory side of the store. The
// settlement transaction covers the inventory decrement, the ticket
// insert, the guest upsert, the dedup ledger row, and the outbox rows
// as one atomic unit.
type InventoryRepository interface {
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvent(ctx context.Context, eventID string) (*domain.Event, error)
	SettlePurchase(ctx context.Context, params *SettleParams) (*domain.Ticket, error)
	FindTicketBySession(ctx context.Context, sessionID string) (*domain.Ticket, error)
}

// TicketRepository is the ticket side of the store. Redeem performs
// the atomic first-scan transition: the returned bool reports whether
// this call set used/scanned_at. When the ticket was already scanned
// the stored record is returned untouched and the caller applies the
// grace-window rule.
type TicketRepository interface {
	GetByID(ctx context.Context, ticketID string) (*domain.Ticket, error)
	Redeem(ctx context.Context, ticketID, eventID string, now time.Time) (*domain.Ticket, bool, error)
	ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*domain.Ticket, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Ticket, error)
}

// GuestRepository accumulates guest buyer profiles keyed by email
type GuestRepository interface {
	Upsert(ctx context.Context, email, name, ticketID string) error
	GetByEmail(ctx context.Context, email string) (*domain.GuestProfile, error)
}

// OutboxRepository is consumed by the relay worker. FetchPending must
// claim the returned rows so concurrent workers do not double-deliver;
// a claim lapses after outboxClaimTTL if the worker dies before
// marking the row, and MarkFailed releases it for the next poll.
type OutboxRepository interface {
	FetchPending(ctx context.Context, limit int) ([]*domain.OutboxMessage, error)
	MarkPublished(ctx context.Context, ids []int64, publishedAt time.Time) error
	MarkFailed(ctx context.Context, id int64) error
}
