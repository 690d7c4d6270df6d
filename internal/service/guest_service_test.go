package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eventease/ticketing/internal/clock"
	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/repository"
)

func TestGuestService_GetProfile(t *testing.T) {
	store := repository.NewMemoryStore()
	event := seedEvent(t, store, []domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})

	settler := NewSettlementService(store, clock.NewFixed(time.Now()))
	for i := 0; i < 2; i++ {
		if _, err := settler.Settle(context.Background(), &SettleInput{
			EventID:    event.ID,
			TypeName:   "general",
			GuestEmail: "ana@example.com",
			GuestName:  "Ana",
		}); err != nil {
			t.Fatalf("Settle() unexpected error = %v", err)
		}
	}

	svc := NewGuestService(store)
	profile, err := svc.GetProfile(context.Background(), "ana@example.com")
	if err != nil {
		t.Fatalf("GetProfile() unexpected error = %v", err)
	}

	if profile.Email != "ana@example.com" {
		t.Errorf("Email = %q, want %q", profile.Email, "ana@example.com")
	}
	if profile.Name != "Ana" {
		t.Errorf("Name = %q, want %q", profile.Name, "Ana")
	}
	if len(profile.TicketIDs) != 2 {
		t.Errorf("len(TicketIDs) = %d, want 2", len(profile.TicketIDs))
	}
}

func TestGuestService_GetProfile_NotFound(t *testing.T) {
	svc := NewGuestService(repository.NewMemoryStore())

	_, err := svc.GetProfile(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrGuestNotFound) {
		t.Errorf("GetProfile() error = %v, want %v", err, domain.ErrGuestNotFound)
	}
}

func TestGuestService_GetProfile_EmptyEmail(t *testing.T) {
	svc := NewGuestService(repository.NewMemoryStore())

	_, err := svc.GetProfile(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidGuestEmail) {
		t.Errorf("GetProfile() error = %v, want %v", err, domain.ErrInvalidGuestEmail)
	}
}
