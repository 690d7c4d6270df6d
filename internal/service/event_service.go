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

// EventService handles organizer event creation and reads
type EventService interface {
	CreateEvent(ctx context.Context, tenantID string, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error)
	ListTickets(ctx context.Context, eventID string, limit, offset int) ([]*dto.TicketResponse, error)
}

// eventService implements EventService
type eventService struct {
	inventoryRepo repository.InventoryRepository
	ticketRepo    repository.TicketRepository
}

// NewEventService creates a new event service
func NewEventService(inventoryRepo repository.InventoryRepository, ticketRepo repository.TicketRepository) EventService {
	return &eventService{
		inventoryRepo: inventoryRepo,
		ticketRepo:    ticketRepo,
	}
}

// CreateEvent validates and persists a new event with its inventory
func (s *eventService) CreateEvent(ctx context.Context, tenantID string, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.create")
	defer span.End()

	if req == nil {
		span.SetStatus(codes.Error, "invalid event name")
		return nil, domain.ErrInvalidEventName
	}

	types := make([]domain.TicketType, len(req.TicketTypes))
	for i, tt := range req.TicketTypes {
		types[i] = domain.TicketType{
			Name:     tt.Name,
			Price:    tt.Price,
			Quantity: tt.Quantity,
		}
	}

	event, err := domain.NewEvent(tenantID, req.Name, req.StartsAt, req.GuestLimit, types)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.String("tenant_id", tenantID),
		attribute.Int("ticket_types", len(types)),
	)

	if err := s.inventoryRepo.CreateEvent(ctx, event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// GetEvent retrieves an event with its inventory
func (s *eventService) GetEvent(ctx context.Context, eventID string) (*dto.EventResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.get")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}

	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := s.inventoryRepo.GetEvent(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.EventFromDomain(event), nil
}

// ListTickets retrieves tickets issued for an event
func (s *eventService) ListTickets(ctx context.Context, eventID string, limit, offset int) ([]*dto.TicketResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.event.list_tickets")
	defer span.End()

	if eventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	tickets, err := s.ticketRepo.ListByEvent(ctx, eventID, limit, offset)
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
