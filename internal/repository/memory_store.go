package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/eventease/ticketing/internal/domain"
)

// MemoryStore is an in-memory implementation of the repository
// interfaces, guarded by one mutex so settlement and redemption are
// atomic the same way the PostgreSQL transactions are. Used by
// service tests, including the concurrency property tests.
type MemoryStore struct {
	mu           sync.Mutex
	events       map[string]*domain.Event
	tickets      map[string]*domain.Ticket
	guests       map[string]*domain.GuestProfile
	ledger       map[string]string // session id -> ticket id
	outbox       []*domain.OutboxMessage
	outboxClaims map[int64]time.Time // outbox id -> claim expiry
	outboxID     int64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:       make(map[string]*domain.Event),
		tickets:      make(map[string]*domain.Ticket),
		guests:       make(map[string]*domain.GuestProfile),
		ledger:       make(map[string]string),
		outboxClaims: make(map[int64]time.Time),
	}
}

var (
	_ InventoryRepository = (*MemoryStore)(nil)
	_ TicketRepository    = (*MemoryStore)(nil)
	_ GuestRepository     = (*MemoryStore)(nil)
	_ OutboxRepository    = (*MemoryStore)(nil)
)

// CreateEvent stores an event
func (s *MemoryStore) CreateEvent(ctx context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *event
	copied.TicketTypes = append([]domain.TicketType(nil), event.TicketTypes...)
	s.events[event.ID] = &copied
	return nil
}

// GetEvent returns a copy of the stored event
func (s *MemoryStore) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[eventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	copied := *event
	copied.TicketTypes = append([]domain.TicketType(nil), event.TicketTypes...)
	return &copied, nil
}

// SettlePurchase applies the settlement atomically under the store mutex
func (s *MemoryStore) SettlePurchase(ctx context.Context, params *SettleParams) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.SessionID != "" {
		if ticketID, ok := s.ledger[params.SessionID]; ok {
			copied := *s.tickets[ticketID]
			return &copied, nil
		}
	}

	event, ok := s.events[params.EventID]
	if !ok {
		return nil, domain.ErrEventNotFound
	}
	tt := event.TicketType(params.TypeName)
	if tt == nil {
		return nil, domain.ErrTicketTypeNotFound
	}
	if tt.Quantity <= 0 {
		return nil, domain.ErrSoldOut
	}

	tt.Quantity--
	tt.Sold++
	event.CurrentGuests++
	event.UpdatedAt = params.Now

	ticket := &domain.Ticket{
		ID:           params.TicketID,
		EventID:      params.EventID,
		TypeName:     params.TypeName,
		Price:        tt.Price,
		PurchaseDate: params.Now,
		UserID:       params.UserID,
		IsGuest:      params.IsGuest,
		GuestEmail:   params.GuestEmail,
		GuestName:    params.GuestName,
		SessionID:    params.SessionID,
	}
	s.tickets[ticket.ID] = ticket

	if params.SessionID != "" {
		s.ledger[params.SessionID] = ticket.ID
	}

	if params.IsGuest && params.GuestEmail != "" {
		s.upsertGuestLocked(params.GuestEmail, params.GuestName, ticket.ID, params.Now)
	}

	payload, _ := json.Marshal(domain.TicketIssuedEvent{
		TicketID:  ticket.ID,
		EventID:   ticket.EventID,
		TypeName:  ticket.TypeName,
		Price:     ticket.Price,
		UserID:    ticket.UserID,
		IsGuest:   ticket.IsGuest,
		IssuedAt:  ticket.PurchaseDate,
		SessionID: ticket.SessionID,
	})
	s.appendOutboxLocked(domain.OutboxKindEvent, domain.TopicTicketIssued, ticket.ID, payload, params.Now)

	if email := ticket.ContactEmail(); email != "" {
		confirmation, _ := json.Marshal(domain.ConfirmationEmail{
			To:       email,
			Name:     ticket.GuestName,
			TicketID: ticket.ID,
			EventID:  ticket.EventID,
			TypeName: ticket.TypeName,
		})
		s.appendOutboxLocked(domain.OutboxKindEmail, "", ticket.ID, confirmation, params.Now)
	}

	copied := *ticket
	return &copied, nil
}

// FindTicketBySession looks up the ticket settled for a session
func (s *MemoryStore) FindTicketBySession(ctx context.Context, sessionID string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticketID, ok := s.ledger[sessionID]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	copied := *s.tickets[ticketID]
	return &copied, nil
}

// GetByID returns a copy of the stored ticket
func (s *MemoryStore) GetByID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[ticketID]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	copied := *ticket
	return &copied, nil
}

// Redeem performs the atomic first-scan transition
func (s *MemoryStore) Redeem(ctx context.Context, ticketID, eventID string, now time.Time) (*domain.Ticket, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[ticketID]
	if !ok {
		return nil, false, domain.ErrTicketNotFound
	}
	if ticket.EventID != eventID {
		return nil, false, domain.ErrWrongEvent
	}
	if ticket.ScannedAt != nil {
		copied := *ticket
		return &copied, false, nil
	}

	scannedAt := now.UTC()
	ticket.Used = true
	ticket.ScannedAt = &scannedAt

	payload, _ := json.Marshal(domain.TicketRedeemedEvent{
		TicketID:   ticket.ID,
		EventID:    ticket.EventID,
		TypeName:   ticket.TypeName,
		RedeemedAt: scannedAt,
	})
	s.appendOutboxLocked(domain.OutboxKindEvent, domain.TopicTicketRedeemed, ticket.ID, payload, scannedAt)

	copied := *ticket
	return &copied, true, nil
}

// ListByEvent returns tickets for an event, newest first
func (s *MemoryStore) ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tickets []*domain.Ticket
	for _, t := range s.tickets {
		if t.EventID == eventID {
			copied := *t
			tickets = append(tickets, &copied)
		}
	}
	return paginateTickets(tickets, limit, offset), nil
}

// ListByUser returns tickets owned by a user, newest first
func (s *MemoryStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tickets []*domain.Ticket
	for _, t := range s.tickets {
		if t.UserID == userID {
			copied := *t
			tickets = append(tickets, &copied)
		}
	}
	return paginateTickets(tickets, limit, offset), nil
}

// Upsert accumulates a guest profile
func (s *MemoryStore) Upsert(ctx context.Context, email, name, ticketID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.upsertGuestLocked(email, name, ticketID, time.Now().UTC())
	return nil
}

// GetByEmail returns a copy of the guest profile
func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*domain.GuestProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	guest, ok := s.guests[email]
	if !ok {
		return nil, domain.ErrGuestNotFound
	}
	copied := *guest
	copied.TicketIDs = append([]string(nil), guest.TicketIDs...)
	return &copied, nil
}

// FetchPending claims unpublished outbox messages in insertion order.
// Claimed messages stay invisible to other callers until the claim
// lapses, matching the Postgres claimed_until semantics.
func (s *MemoryStore) FetchPending(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	var pending []*domain.OutboxMessage
	for _, msg := range s.outbox {
		if msg.PublishedAt != nil {
			continue
		}
		if expiry, claimed := s.outboxClaims[msg.ID]; claimed && expiry.After(now) {
			continue
		}
		s.outboxClaims[msg.ID] = now.Add(outboxClaimTTL)
		copied := *msg
		pending = append(pending, &copied)
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

// MarkPublished stamps outbox messages as delivered
func (s *MemoryStore) MarkPublished(ctx context.Context, ids []int64, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for _, msg := range s.outbox {
		if _, ok := set[msg.ID]; ok {
			ts := publishedAt
			msg.PublishedAt = &ts
			delete(s.outboxClaims, msg.ID)
		}
	}
	return nil
}

// MarkFailed bumps the attempt counter and releases the claim
func (s *MemoryStore) MarkFailed(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, msg := range s.outbox {
		if msg.ID == id {
			msg.Attempts++
			delete(s.outboxClaims, msg.ID)
		}
	}
	return nil
}

// OutboxMessages returns a snapshot of all outbox rows, for tests
func (s *MemoryStore) OutboxMessages() []*domain.OutboxMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*domain.OutboxMessage, len(s.outbox))
	for i, msg := range s.outbox {
		copied := *msg
		snapshot[i] = &copied
	}
	return snapshot
}

func (s *MemoryStore) upsertGuestLocked(email, name, ticketID string, now time.Time) {
	guest, ok := s.guests[email]
	if !ok {
		s.guests[email] = &domain.GuestProfile{
			Email:     email,
			Name:      name,
			TicketIDs: []string{ticketID},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return
	}
	if name != "" {
		guest.Name = name
	}
	guest.TicketIDs = append(guest.TicketIDs, ticketID)
	guest.UpdatedAt = now
}

func (s *MemoryStore) appendOutboxLocked(kind, topic, key string, payload []byte, createdAt time.Time) {
	s.outboxID++
	s.outbox = append(s.outbox, &domain.OutboxMessage{
		ID:        s.outboxID,
		Kind:      kind,
		Topic:     topic,
		Key:       key,
		Payload:   payload,
		CreatedAt: createdAt,
	})
}

func paginateTickets(tickets []*domain.Ticket, limit, offset int) []*domain.Ticket {
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].PurchaseDate.After(tickets[j].PurchaseDate)
	})
	if offset >= len(tickets) {
		return nil
	}
	tickets = tickets[offset:]
	if limit > 0 && len(tickets) > limit {
		tickets = tickets[:limit]
	}
	return tickets
}
