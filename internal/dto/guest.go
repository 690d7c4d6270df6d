package dto

import (
	"time"

	"github.com/eventease/ticketing/internal/domain"
)

// GuestResponse represents a guest profile in API responses
type GuestResponse struct {
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	TicketIDs []string  `json:"ticket_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GuestFromDomain converts a domain GuestProfile to GuestResponse
func GuestFromDomain(g *domain.GuestProfile) *GuestResponse {
	return &GuestResponse{
		Email:     g.Email,
		Name:      g.Name,
		TicketIDs: g.TicketIDs,
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
}
