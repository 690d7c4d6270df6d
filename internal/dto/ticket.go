package dto

import (
	"time"

	"github.com/eventease/ticketing/internal/domain"
)

// PurchaseRequest represents a free-ticket purchase request
type PurchaseRequest struct {
	TicketType string `json:"ticket_type" binding:"required"`
	UserID     string `json:"user_id,omitempty"`
	GuestEmail string `json:"guest_email,omitempty"`
	GuestName  string `json:"guest_name,omitempty"`
}

// CheckoutRequest represents a paid checkout session request
type CheckoutRequest struct {
	TicketType string `json:"ticket_type" binding:"required"`
	UserID     string `json:"user_id,omitempty"`
	GuestEmail string `json:"guest_email,omitempty"`
	GuestName  string `json:"guest_name,omitempty"`
}

// CheckoutResponse represents a created checkout session
type CheckoutResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// ScanRequest is the payload a scanning station submits after decoding
// a QR code
type ScanRequest struct {
	TicketID string `json:"ticket_id" binding:"required"`
}

// ScanResponse represents the outcome of a redemption attempt
type ScanResponse struct {
	Result    string     `json:"result"`
	TicketID  string     `json:"ticket_id"`
	EventID   string     `json:"event_id"`
	TypeName  string     `json:"type_name,omitempty"`
	ScannedAt *time.Time `json:"scanned_at,omitempty"`
}

// TicketResponse represents an issued ticket in API responses
type TicketResponse struct {
	ID           string     `json:"id"`
	EventID      string     `json:"event_id"`
	TypeName     string     `json:"type_name"`
	Price        int64      `json:"price"`
	PurchaseDate time.Time  `json:"purchase_date"`
	UserID       string     `json:"user_id,omitempty"`
	IsGuest      bool       `json:"is_guest"`
	GuestEmail   string     `json:"guest_email,omitempty"`
	Used         bool       `json:"used"`
	ScannedAt    *time.Time `json:"scanned_at,omitempty"`
}

// TicketFromDomain converts a domain Ticket to TicketResponse
func TicketFromDomain(t *domain.Ticket) *TicketResponse {
	return &TicketResponse{
		ID:           t.ID,
		EventID:      t.EventID,
		TypeName:     t.TypeName,
		Price:        t.Price,
		PurchaseDate: t.PurchaseDate,
		UserID:       t.UserID,
		IsGuest:      t.IsGuest,
		GuestEmail:   t.GuestEmail,
		Used:         t.Used,
		ScannedAt:    t.ScannedAt,
	}
}

// ScanFromDomain builds a ScanResponse for a ticket and result
func ScanFromDomain(t *domain.Ticket, result domain.ScanResult) *ScanResponse {
	return &ScanResponse{
		Result:    string(result),
		TicketID:  t.ID,
		EventID:   t.EventID,
		TypeName:  t.TypeName,
		ScannedAt: t.ScannedAt,
	}
}
