package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/dto"
	"github.com/eventease/ticketing/internal/repository"
)

func TestEventService_CreateEvent(t *testing.T) {
	tests := []struct {
		name     string
		tenantID string
		req      *dto.CreateEventRequest
		wantErr  error
	}{
		{
			name:     "valid event with mixed pricing",
			tenantID: "tenant-001",
			req: &dto.CreateEventRequest{
				Name:     "Launch Party",
				StartsAt: time.Now().Add(24 * time.Hour),
				TicketTypes: []dto.TicketTypeRequest{
					{Name: "general", Price: 0, Quantity: 100},
					{Name: "vip", Price: 4500, Quantity: 10},
				},
			},
		},
		{
			name:     "missing tenant",
			tenantID: "",
			req: &dto.CreateEventRequest{
				Name:        "Launch Party",
				StartsAt:    time.Now().Add(24 * time.Hour),
				TicketTypes: []dto.TicketTypeRequest{{Name: "general", Quantity: 10}},
			},
			wantErr: domain.ErrInvalidTenantID,
		},
		{
			name:     "duplicate ticket type names",
			tenantID: "tenant-001",
			req: &dto.CreateEventRequest{
				Name:     "Launch Party",
				StartsAt: time.Now().Add(24 * time.Hour),
				TicketTypes: []dto.TicketTypeRequest{
					{Name: "general", Quantity: 10},
					{Name: "general", Quantity: 20},
				},
			},
			wantErr: domain.ErrDuplicateTicketType,
		},
		{
			name:     "no ticket types",
			tenantID: "tenant-001",
			req: &dto.CreateEventRequest{
				Name:     "Launch Party",
				StartsAt: time.Now().Add(24 * time.Hour),
			},
			wantErr: domain.ErrNoTicketTypes,
		},
		{
			name:     "negative price",
			tenantID: "tenant-001",
			req: &dto.CreateEventRequest{
				Name:        "Launch Party",
				StartsAt:    time.Now().Add(24 * time.Hour),
				TicketTypes: []dto.TicketTypeRequest{{Name: "general", Price: -1, Quantity: 10}},
			},
			wantErr: domain.ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			svc := NewEventService(store, store)

			resp, err := svc.CreateEvent(context.Background(), tt.tenantID, tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateEvent() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("CreateEvent() unexpected error = %v", err)
				return
			}
			if resp.ID == "" {
				t.Error("CreateEvent() expected event ID, got empty")
			}
			if len(resp.TicketTypes) != len(tt.req.TicketTypes) {
				t.Errorf("ticket types = %d, want %d", len(resp.TicketTypes), len(tt.req.TicketTypes))
			}
			for _, typ := range resp.TicketTypes {
				if typ.Sold != 0 {
					t.Errorf("type %s sold = %d, want 0", typ.Name, typ.Sold)
				}
			}
		})
	}
}

func TestEventService_GetEvent(t *testing.T) {
	store := repository.NewMemoryStore()
	event := seedEvent(t, store, []domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})
	svc := NewEventService(store, store)

	resp, err := svc.GetEvent(context.Background(), event.ID)
	if err != nil {
		t.Fatalf("GetEvent() unexpected error = %v", err)
	}
	if resp.ID != event.ID {
		t.Errorf("event ID = %s, want %s", resp.ID, event.ID)
	}

	if _, err := svc.GetEvent(context.Background(), "no-such-event"); !errors.Is(err, domain.ErrEventNotFound) {
		t.Errorf("GetEvent() error = %v, want %v", err, domain.ErrEventNotFound)
	}
}

func TestEventService_ListTickets(t *testing.T) {
	store := repository.NewMemoryStore()
	event := seedEvent(t, store, []domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})
	settle := NewSettlementService(store, nil)

	for i := 0; i < 3; i++ {
		if _, err := settle.Settle(context.Background(), &SettleInput{
			EventID:    event.ID,
			TypeName:   "general",
			GuestEmail: "ana@example.com",
		}); err != nil {
			t.Fatalf("Settle() unexpected error = %v", err)
		}
	}

	svc := NewEventService(store, store)
	tickets, err := svc.ListTickets(context.Background(), event.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListTickets() unexpected error = %v", err)
	}
	if len(tickets) != 3 {
		t.Errorf("tickets = %d, want 3", len(tickets))
	}
}
