package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eventease/ticketing/internal/clock"
	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/repository"
)

func issueTicket(t *testing.T, store *repository.MemoryStore, eventID string) *domain.Ticket {
	t.Helper()

	svc := NewSettlementService(store, clock.NewSystem())
	resp, err := svc.Settle(context.Background(), &SettleInput{
		EventID:  eventID,
		TypeName: "general",
		UserID:   "user-001",
	})
	if err != nil {
		t.Fatalf("Settle() unexpected error = %v", err)
	}
	ticket, err := store.GetByID(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error = %v", err)
	}
	return ticket
}

func TestRedemptionService_Redeem_FirstScan(t *testing.T) {
	store := repository.NewMemoryStore()
	event := seedEvent(t, store, []domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})
	ticket := issueTicket(t, store, event.ID)

	clk := clock.NewFixed(time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC))
	svc := NewRedemptionService(store, clk, nil)

	resp, err := svc.Redeem(context.Background(), ticket.ID, event.ID)
	if err != nil {
		t.Fatalf("Redeem() unexpected error = %v", err)
	}
	if resp.Result != string(domain.ScanValidated) {
		t.Errorf("result = %s, want %s", resp.Result, domain.ScanValidated)
	}

	stored, err := store.GetByID(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error = %v", err)
	}
	if !stored.Used {
		t.Error("ticket must be used after first scan")
	}
	if stored.ScannedAt == nil || !stored.ScannedAt.Equal(clk.Now()) {
		t.Errorf("scanned_at = %v, want %v", stored.ScannedAt, clk.Now())
	}
}

func TestRedemptionService_Redeem_GraceWindow(t *testing.T) {
	store := repository.NewMemoryStore()
	event := seedEvent(t, store, []domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})
	ticket := issueTicket(t, store, event.ID)

	clk := clock.NewFixed(time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC))
	firstScanAt := clk.Now()
	svc := NewRedemptionService(store, clk, &RedemptionServiceConfig{GraceWindow: 5 * time.Second})

	if _, err := svc.Redeem(context.Background(), ticket.ID, event.ID); err != nil {
		t.Fatalf("Redeem() first scan unexpected error = %v", err)
	}

	// Repeat inside the window: validated again, stored state untouched
	clk.Advance(3 * time.Second)
	resp, err := svc.Redeem(context.Background(), ticket.ID, event.ID)
	if err != nil {
		t.Fatalf("Redeem() inside window unexpected error = %v", err)
	}
	if resp.Result != string(domain.ScanValidated) {
		t.Errorf("result inside window = %s, want %s", resp.Result, domain.ScanValidated)
	}

	stored, _ := store.GetByID(context.Background(), ticket.ID)
	if !stored.ScannedAt.Equal(firstScanAt) {
		t.Errorf("scanned_at = %v, changed by repeat scan, want %v", stored.ScannedAt, firstScanAt)
	}

	// Repeat past the window: rejected with the original admission time
	clk.Advance(6 * time.Second)
	_, err = svc.Redeem(context.Background(), ticket.ID, event.ID)
	if !errors.Is(err, domain.ErrAlreadyUsed) {
		t.Fatalf("Redeem() past window error = %v, want %v", err, domain.ErrAlreadyUsed)
	}

	var usedErr *domain.AlreadyUsedError
	if !errors.As(err, &usedErr) {
		t.Fatalf("Redeem() error type = %T, want *domain.AlreadyUsedError", err)
	}
	if !usedErr.ScannedAt.Equal(firstScanAt) {
		t.Errorf("rejection scanned_at = %v, want %v", usedErr.ScannedAt, firstScanAt)
	}
}

func TestRedemptionService_Redeem_ExactWindowBoundaryRejects(t *testing.T) {
	store := repository.NewMemoryStore()
	event := seedEvent(t, store, []domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})
	ticket := issueTicket(t, store, event.ID)

	clk := clock.NewFixed(time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC))
	svc := NewRedemptionService(store, clk, &RedemptionServiceConfig{GraceWindow: 5 * time.Second})

	if _, err := svc.Redeem(context.Background(), ticket.ID, event.ID); err != nil {
		t.Fatalf("Redeem() first scan unexpected error = %v", err)
	}

	clk.Advance(5 * time.Second)
	_, err := svc.Redeem(context.Background(), ticket.ID, event.ID)
	if !errors.Is(err, domain.ErrAlreadyUsed) {
		t.Errorf("Redeem() at window boundary error = %v, want %v", err, domain.ErrAlreadyUsed)
	}
}

func TestRedemptionService_Redeem_WrongEvent(t *testing.T) {
	store := repository.NewMemoryStore()
	event := seedEvent(t, store, []domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})
	other := seedEvent(t, store, []domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})
	ticket := issueTicket(t, store, event.ID)

	svc := NewRedemptionService(store, clock.NewSystem(), nil)

	_, err := svc.Redeem(context.Background(), ticket.ID, other.ID)
	if !errors.Is(err, domain.ErrWrongEvent) {
		t.Fatalf("Redeem() error = %v, want %v", err, domain.ErrWrongEvent)
	}

	// A wrong-event scan must not consume the ticket
	stored, _ := store.GetByID(context.Background(), ticket.ID)
	if stored.Used || stored.ScannedAt != nil {
		t.Error("wrong-event scan mutated the ticket")
	}

	// The ticket still admits at its own event
	resp, err := svc.Redeem(context.Background(), ticket.ID, event.ID)
	if err != nil {
		t.Fatalf("Redeem() at own event unexpected error = %v", err)
	}
	if resp.Result != string(domain.ScanValidated) {
		t.Errorf("result = %s, want %s", resp.Result, domain.ScanValidated)
	}
}

func TestRedemptionService_Redeem_NotFound(t *testing.T) {
	store := repository.NewMemoryStore()
	event := seedEvent(t, store, []domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})

	svc := NewRedemptionService(store, clock.NewSystem(), nil)

	_, err := svc.Redeem(context.Background(), "no-such-ticket", event.ID)
	if !errors.Is(err, domain.ErrTicketNotFound) {
		t.Errorf("Redeem() error = %v, want %v", err, domain.ErrTicketNotFound)
	}
}

func TestRedemptionService_Redeem_Validation(t *testing.T) {
	svc := NewRedemptionService(repository.NewMemoryStore(), clock.NewSystem(), nil)

	if _, err := svc.Redeem(context.Background(), "", "event-001"); !errors.Is(err, domain.ErrInvalidTicketID) {
		t.Errorf("Redeem() error = %v, want %v", err, domain.ErrInvalidTicketID)
	}
	if _, err := svc.Redeem(context.Background(), "ticket-001", ""); !errors.Is(err, domain.ErrInvalidEventID) {
		t.Errorf("Redeem() error = %v, want %v", err, domain.ErrInvalidEventID)
	}
}

// Concurrent stations scanning the same ticket: exactly one performs
// the transition, and inside the grace window everyone sees validated.
func TestRedemptionService_Redeem_ConcurrentScans(t *testing.T) {
	const stations = 10

	store := repository.NewMemoryStore()
	event := seedEvent(t, store, []domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})
	ticket := issueTicket(t, store, event.ID)

	clk := clock.NewFixed(time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC))
	svc := NewRedemptionService(store, clk, nil)

	var wg sync.WaitGroup
	results := make(chan error, stations)

	for i := 0; i < stations; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Redeem(context.Background(), ticket.ID, event.ID)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			t.Errorf("Redeem() unexpected error = %v", err)
		}
	}

	stored, _ := store.GetByID(context.Background(), ticket.ID)
	if stored.ScannedAt == nil || !stored.ScannedAt.Equal(clk.Now()) {
		t.Errorf("scanned_at = %v, want %v", stored.ScannedAt, clk.Now())
	}
}

func TestRedemptionService_Redeem_WritesRedeemedOutbox(t *testing.T) {
	store := repository.NewMemoryStore()
	event := seedEvent(t, store, []domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})
	ticket := issueTicket(t, store, event.ID)

	svc := NewRedemptionService(store, clock.NewSystem(), nil)
	if _, err := svc.Redeem(context.Background(), ticket.ID, event.ID); err != nil {
		t.Fatalf("Redeem() unexpected error = %v", err)
	}

	var redeemed int
	for _, msg := range store.OutboxMessages() {
		if msg.Topic == domain.TopicTicketRedeemed {
			redeemed++
		}
	}
	if redeemed != 1 {
		t.Errorf("redeemed events in outbox = %d, want 1", redeemed)
	}
}
