package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/clock"
	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/dto"
	"github.com/eventease/ticketing/internal/metrics"
	"github.com/eventease/ticketing/internal/repository"
	"github.com/eventease/ticketing/pkg/telemetry"
)

// SettleInput carries one settlement request. SessionID is empty for
// free tickets and set to the gateway session for paid ones.
type SettleInput struct {
	EventID    string
	TypeName   string
	UserID     string
	GuestEmail string
	GuestName  string
	SessionID  string
}

// SettlementService converts a paid-for or free ticket intent into a
// decremented inventory count plus an issued ticket, exactly once.
type SettlementService interface {
	// Settle runs the purchase settlement procedure. Replays of the
	// same payment session return the previously issued ticket.
	Settle(ctx context.Context, input *SettleInput) (*dto.TicketResponse, error)
}

// settlementService implements SettlementService
type settlementService struct {
	inventoryRepo repository.InventoryRepository
	clk           clock.Clock
}

// NewSettlementService creates a new settlement service
func NewSettlementService(inventoryRepo repository.InventoryRepository, clk clock.Clock) SettlementService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &settlementService{
		inventoryRepo: inventoryRepo,
		clk:           clk,
	}
}

// Settle runs the purchase settlement procedure
func (s *settlementService) Settle(ctx context.Context, input *SettleInput) (*dto.TicketResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.settlement.settle")
	defer span.End()

	start := time.Now()

	if input == nil || input.EventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if input.TypeName == "" {
		span.SetStatus(codes.Error, "invalid ticket type")
		return nil, domain.ErrInvalidTicketTypeName
	}
	isGuest := input.UserID == ""
	if isGuest && input.GuestEmail == "" {
		span.SetStatus(codes.Error, "missing buyer")
		return nil, domain.ErrMissingBuyer
	}

	span.SetAttributes(
		attribute.String("event_id", input.EventID),
		attribute.String("ticket_type", input.TypeName),
		attribute.Bool("is_guest", isGuest),
		attribute.Bool("paid", input.SessionID != ""),
	)

	// Replay of an already-settled payment session is a no-op success
	if input.SessionID != "" {
		existing, err := s.inventoryRepo.FindTicketBySession(ctx, input.SessionID)
		if err == nil {
			metrics.RecordSessionReplay(ctx, input.EventID)
			span.SetAttributes(attribute.Bool("replay", true))
			span.SetStatus(codes.Ok, "")
			return dto.TicketFromDomain(existing), nil
		}
		if !errors.Is(err, domain.ErrTicketNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	ticket, err := s.inventoryRepo.SettlePurchase(ctx, &repository.SettleParams{
		TicketID:   uuid.NewString(),
		EventID:    input.EventID,
		TypeName:   input.TypeName,
		UserID:     input.UserID,
		GuestEmail: input.GuestEmail,
		GuestName:  input.GuestName,
		IsGuest:    isGuest,
		SessionID:  input.SessionID,
		Now:        s.clk.Now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrSoldOut) {
			metrics.RecordSoldOut(ctx, input.EventID, input.TypeName)
		} else {
			metrics.RecordSettlementFailure(ctx, input.EventID, failureReason(err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordSettlement(ctx, input.EventID, input.TypeName, ticket.Price == 0, time.Since(start).Seconds())
	span.SetAttributes(attribute.String("ticket_id", ticket.ID))
	span.SetStatus(codes.Ok, "")
	return dto.TicketFromDomain(ticket), nil
}

func failureReason(err error) string {
	switch {
	case domain.IsNotFoundError(err):
		return "not_found"
	case domain.IsValidationError(err):
		return "validation"
	case domain.IsConflictError(err):
		return "conflict"
	default:
		return "internal"
	}
}
