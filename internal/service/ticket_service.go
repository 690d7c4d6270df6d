package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/dto"
	"github.com/eventease/ticketing/internal/repository"
	"github.com/eventease/ticketing/pkg/telemetry"
)

// TicketService handles ticket reads
type TicketService interface {
	GetTicket(ctx context.Context, ticketID string) (*dto.TicketResponse, error)
	ListUserTickets(ctx context.Context, userID string, limit, offset int) ([]*dto.TicketResponse, error)
}

type ticketService struct {
	ticketRepo repository.TicketRepository
}

// NewTicketService creates a new ticket service
func NewTicketService(ticketRepo repository.TicketRepository) TicketService {
	return &ticketService{ticketRepo: ticketRepo}
}

func (s *ticketService) GetTicket(ctx context.Context, ticketID string) (*dto.TicketResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.get")
	defer span.End()

	if ticketID == "" {
		span.SetStatus(codes.Error, "invalid ticket_id")
		return nil, domain.ErrInvalidTicketID
	}

	span.SetAttributes(attribute.String("ticket_id", ticketID))

	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.TicketFromDomain(ticket), nil
}

func (s *ticketService) ListUserTickets(ctx context.Context, userID string, limit, offset int) ([]*dto.TicketResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.ticket.list_by_user")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	tickets, err := s.ticketRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	responses := make([]*dto.TicketResponse, len(tickets))
	for i, t := range tickets {
		responses[i] = dto.TicketFromDomain(t)
	}

	span.SetStatus(codes.Ok, "")
	return responses, nil
}
