package service

import (
	"context"
	"errors"
	"testing"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/gateway"
	"github.com/eventease/ticketing/internal/repository"
)

func TestCheckoutService_CreateSession(t *testing.T) {
	tests := []struct {
		name    string
		types   []domain.TicketType
		input   func(eventID string) *CheckoutInput
		wantErr error
	}{
		{
			name:  "paid type opens a session",
			types: []domain.TicketType{{Name: "vip", Price: 4500, Quantity: 5}},
			input: func(eventID string) *CheckoutInput {
				return &CheckoutInput{EventID: eventID, TypeName: "vip", UserID: "user-001"}
			},
		},
		{
			name:  "guest buyer opens a session",
			types: []domain.TicketType{{Name: "vip", Price: 4500, Quantity: 5}},
			input: func(eventID string) *CheckoutInput {
				return &CheckoutInput{EventID: eventID, TypeName: "vip", GuestEmail: "ana@example.com"}
			},
		},
		{
			name:  "free type is rejected",
			types: []domain.TicketType{{Name: "general", Price: 0, Quantity: 5}},
			input: func(eventID string) *CheckoutInput {
				return &CheckoutInput{EventID: eventID, TypeName: "general", UserID: "user-001"}
			},
			wantErr: domain.ErrPaymentFree,
		},
		{
			name:  "sold out type is rejected upfront",
			types: []domain.TicketType{{Name: "vip", Price: 4500, Quantity: 0}},
			input: func(eventID string) *CheckoutInput {
				return &CheckoutInput{EventID: eventID, TypeName: "vip", UserID: "user-001"}
			},
			wantErr: domain.ErrSoldOut,
		},
		{
			name:  "unknown type",
			types: []domain.TicketType{{Name: "vip", Price: 4500, Quantity: 5}},
			input: func(eventID string) *CheckoutInput {
				return &CheckoutInput{EventID: eventID, TypeName: "backstage", UserID: "user-001"}
			},
			wantErr: domain.ErrTicketTypeNotFound,
		},
		{
			name:  "missing buyer",
			types: []domain.TicketType{{Name: "vip", Price: 4500, Quantity: 5}},
			input: func(eventID string) *CheckoutInput {
				return &CheckoutInput{EventID: eventID, TypeName: "vip"}
			},
			wantErr: domain.ErrMissingBuyer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := repository.NewMemoryStore()
			event := seedEvent(t, store, tt.types)
			payments := &gateway.MockGateway{}
			svc := NewCheckoutService(store, payments, &CheckoutServiceConfig{
				Currency:   "eur",
				SuccessURL: "https://shop.example.com/success",
				CancelURL:  "https://shop.example.com/cancel",
			})

			resp, err := svc.CreateSession(context.Background(), tt.input(event.ID))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
				}
				if len(payments.CreatedSessions) != 0 {
					t.Error("CreateSession() opened a gateway session despite rejection")
				}
				return
			}
			if err != nil {
				t.Errorf("CreateSession() unexpected error = %v", err)
				return
			}
			if resp.SessionID == "" || resp.CheckoutURL == "" {
				t.Errorf("CreateSession() incomplete response %+v", resp)
			}
		})
	}
}

func TestCheckoutService_CreateSession_PassesPriceAtCheckout(t *testing.T) {
	store := repository.NewMemoryStore()
	event := seedEvent(t, store, []domain.TicketType{{Name: "vip", Price: 4500, Quantity: 5}})
	payments := &gateway.MockGateway{}
	svc := NewCheckoutService(store, payments, nil)

	_, err := svc.CreateSession(context.Background(), &CheckoutInput{
		EventID:  event.ID,
		TypeName: "vip",
		UserID:   "user-001",
	})
	if err != nil {
		t.Fatalf("CreateSession() unexpected error = %v", err)
	}

	if len(payments.CreatedSessions) != 1 {
		t.Fatalf("gateway sessions = %d, want 1", len(payments.CreatedSessions))
	}
	params := payments.CreatedSessions[0]
	if params.Amount != 4500 {
		t.Errorf("amount = %d, want 4500", params.Amount)
	}
	if params.Currency != "eur" {
		t.Errorf("currency = %s, want eur", params.Currency)
	}
	if params.EventID != event.ID || params.TypeName != "vip" {
		t.Errorf("session metadata = %+v, want event %s type vip", params, event.ID)
	}
}
