package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/clock"
	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/dto"
	"github.com/eventease/ticketing/internal/metrics"
	"github.com/eventease/ticketing/internal/repository"
	"github.com/eventease/ticketing/pkg/telemetry"
)

// DefaultScanGraceWindow tolerates scanner jitter: a repeat scan of
// the same ticket inside this window is a benign duplicate, not a
// second admission attempt.
const DefaultScanGraceWindow = 5 * time.Second

// RedemptionService marks tickets as used at the door, exactly once
// per admission.
type RedemptionService interface {
	// Redeem validates a scanned ticket against the station's event
	Redeem(ctx context.Context, ticketID, stationEventID string) (*dto.ScanResponse, error)
}

// RedemptionServiceConfig contains configuration for the redemption service
type RedemptionServiceConfig struct {
	GraceWindow time.Duration
}

// redemptionService implements RedemptionService
type redemptionService struct {
	ticketRepo  repository.TicketRepository
	clk         clock.Clock
	graceWindow time.Duration
}

// NewRedemptionService creates a new redemption service
func NewRedemptionService(ticketRepo repository.TicketRepository, clk clock.Clock, cfg *RedemptionServiceConfig) RedemptionService {
	window := DefaultScanGraceWindow
	if cfg != nil && cfg.GraceWindow > 0 {
		window = cfg.GraceWindow
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &redemptionService{
		ticketRepo:  ticketRepo,
		clk:         clk,
		graceWindow: window,
	}
}

// Redeem validates a scanned ticket. First scan transitions the
// ticket to used; a repeat scan inside the grace window is validated
// again without touching stored state; a repeat at or past the window
// is rejected with the original admission time.
func (s *redemptionService) Redeem(ctx context.Context, ticketID, stationEventID string) (*dto.ScanResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.redemption.redeem")
	defer span.End()

	start := time.Now()

	if ticketID == "" {
		span.SetStatus(codes.Error, "invalid ticket_id")
		return nil, domain.ErrInvalidTicketID
	}
	if stationEventID == "" {
		span.SetStatus(codes.Error, "invalid event_id")
		return nil, domain.ErrInvalidEventID
	}

	span.SetAttributes(
		attribute.String("ticket_id", ticketID),
		attribute.String("event_id", stationEventID),
	)

	now := s.clk.Now()
	ticket, firstScan, err := s.ticketRepo.Redeem(ctx, ticketID, stationEventID, now)
	if err != nil {
		metrics.RecordScan(ctx, stationEventID, scanRejection(err), false, time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if firstScan {
		metrics.RecordScan(ctx, stationEventID, string(domain.ScanValidated), false, time.Since(start).Seconds())
		span.SetAttributes(attribute.Bool("first_scan", true))
		span.SetStatus(codes.Ok, "")
		return dto.ScanFromDomain(ticket, domain.ScanValidated), nil
	}

	// Already scanned: tolerate the repeat inside the grace window,
	// reject it with the original timestamp once the window passes
	if now.Sub(*ticket.ScannedAt) < s.graceWindow {
		metrics.RecordScan(ctx, stationEventID, string(domain.ScanValidated), true, time.Since(start).Seconds())
		span.SetAttributes(attribute.Bool("grace_window", true))
		span.SetStatus(codes.Ok, "")
		return dto.ScanFromDomain(ticket, domain.ScanValidated), nil
	}

	metrics.RecordScan(ctx, stationEventID, string(domain.ScanAlreadyUsed), false, time.Since(start).Seconds())
	span.SetStatus(codes.Error, "already used")
	return nil, domain.NewAlreadyUsedError(*ticket.ScannedAt)
}

func scanRejection(err error) string {
	switch {
	case domain.IsNotFoundError(err):
		return "not_found"
	case errors.Is(err, domain.ErrWrongEvent):
		return string(domain.ScanWrongEvent)
	default:
		return "internal"
	}
}
