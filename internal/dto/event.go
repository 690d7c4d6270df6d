package dto

import (
	"time"

	"github.com/eventease/ticketing/internal/domain"
)

// TicketTypeRequest is one inventory bucket in an event creation request
type TicketTypeRequest struct {
	Name     string `json:"name" binding:"required"`
	Price    int64  `json:"price" binding:"min=0"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// CreateEventRequest represents request to create an event
type CreateEventRequest struct {
	Name        string              `json:"name" binding:"required"`
	StartsAt    time.Time           `json:"starts_at" binding:"required"`
	GuestLimit  int                 `json:"guest_limit" binding:"min=0"`
	TicketTypes []TicketTypeRequest `json:"ticket_types" binding:"required,min=1,dive"`
}

// TicketTypeResponse represents a ticket type in API responses
type TicketTypeResponse struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Sold     int    `json:"sold"`
}

// EventResponse represents an event in API responses
type EventResponse struct {
	ID            string               `json:"id"`
	TenantID      string               `json:"tenant_id"`
	Name          string               `json:"name"`
	TicketTypes   []TicketTypeResponse `json:"ticket_types"`
	CurrentGuests int                  `json:"current_guests"`
	GuestLimit    int                  `json:"guest_limit"`
	StartsAt      time.Time            `json:"starts_at"`
	CreatedAt     time.Time            `json:"created_at"`
}

// EventFromDomain converts a domain Event to EventResponse
func EventFromDomain(e *domain.Event) *EventResponse {
	types := make([]TicketTypeResponse, len(e.TicketTypes))
	for i, tt := range e.TicketTypes {
		types[i] = TicketTypeResponse{
			Name:     tt.Name,
			Price:    tt.Price,
			Quantity: tt.Quantity,
			Sold:     tt.Sold,
		}
	}
	return &EventResponse{
		ID:            e.ID,
		TenantID:      e.TenantID,
		Name:          e.Name,
		TicketTypes:   types,
		CurrentGuests: e.CurrentGuests,
		GuestLimit:    e.GuestLimit,
		StartsAt:      e.StartsAt,
		CreatedAt:     e.CreatedAt,
	}
}
