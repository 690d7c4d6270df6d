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

// GuestService reads guest profiles accumulated by settlement
type GuestService interface {
	GetProfile(ctx context.Context, email string) (*dto.GuestResponse, error)
}

type guestService struct {
	guestRepo repository.GuestRepository
}

// NewGuestService creates a new guest service
func NewGuestService(guestRepo repository.GuestRepository) GuestService {
	return &guestService{guestRepo: guestRepo}
}

func (s *guestService) GetProfile(ctx context.Context, email string) (*dto.GuestResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.guest.get_profile")
	defer span.End()

	if email == "" {
		span.SetStatus(codes.Error, "invalid email")
		return nil, domain.ErrInvalidGuestEmail
	}

	span.SetAttributes(attribute.String("email", email))

	guest, err := s.guestRepo.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.GuestFromDomain(guest), nil
}
