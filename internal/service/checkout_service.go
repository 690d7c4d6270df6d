package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/dto"
	"github.com/eventease/ticketing/internal/gateway"
	"github.com/eventease/ticketing/internal/repository"
	"github.com/eventease/ticketing/pkg/telemetry"
)

// CheckoutInput carries a paid checkout session request
type CheckoutInput struct {
	EventID    string
	TypeName   string
	UserID     string
	GuestEmail string
	GuestName  string
}

// CheckoutService starts hosted checkout sessions for paid tickets.
// Settlement happens later, driven by the gateway's confirmation.
type CheckoutService interface {
	CreateSession(ctx context.Context, input *CheckoutInput) (*dto.CheckoutResponse, error)
}

// CheckoutServiceConfig contains configuration for the checkout service
type CheckoutServiceConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// checkoutService implements CheckoutService
type checkoutService struct {
	inventoryRepo repository.InventoryRepository
	payments      gateway.PaymentGateway
	currency      string
	successURL    string
	cancelURL     string
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(inventoryRepo repository.InventoryRepository, payments gateway.PaymentGateway, cfg *CheckoutServiceConfig) CheckoutService {
	currency := "eur"
	successURL := ""
	cancelURL := ""
	if cfg != nil {
		if cfg.Currency != "" {
			currency = cfg.Currency
		}
		successURL = cfg.SuccessURL
		cancelURL = cfg.CancelURL
	}
	return &checkoutService{
		inventoryRepo: inventoryRepo,
		payments:      payments,
		currency:      currency,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

// CreateSession verifies the ticket type and opens a checkout session.
// The sold-out check here is advisory; the webhook settlement remains
// the authoritative one.
func (s *checkoutService) CreateSession(ctx context.Context, input *CheckoutInput) (*dto.CheckoutResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.checkout.create_session")
	defer span.End()

	if input == nil || input.EventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if input.TypeName == "" {
		span.SetStatus(codes.Error, "invalid ticket type")
		return nil, domain.ErrInvalidTicketTypeName
	}
	if input.UserID == "" && input.GuestEmail == "" {
		span.SetStatus(codes.Error, "missing buyer")
		return nil, domain.ErrMissingBuyer
	}

	span.SetAttributes(
		attribute.String("event_id", input.EventID),
		attribute.String("ticket_type", input.TypeName),
	)

	event, err := s.inventoryRepo.GetEvent(ctx, input.EventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	tt := event.TicketType(input.TypeName)
	if tt == nil {
		span.SetStatus(codes.Error, "ticket type not found")
		return nil, domain.ErrTicketTypeNotFound
	}
	if tt.IsFree() {
		// Free types settle directly via the purchase endpoint
		span.SetStatus(codes.Error, "free ticket type")
		return nil, domain.ErrPaymentFree
	}
	if tt.Quantity <= 0 {
		span.SetStatus(codes.Error, "sold out")
		return nil, domain.ErrSoldOut
	}

	session, err := s.payments.CreateCheckoutSession(ctx, &gateway.CheckoutParams{
		EventID:    input.EventID,
		TypeName:   input.TypeName,
		Amount:     tt.Price,
		Currency:   s.currency,
		UserID:     input.UserID,
		GuestEmail: input.GuestEmail,
		GuestName:  input.GuestName,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("session_id", session.ID))
	span.SetStatus(codes.Ok, "")
	return &dto.CheckoutResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	}, nil
}
