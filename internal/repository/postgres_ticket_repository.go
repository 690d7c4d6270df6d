package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/pkg/telemetry"
)

const ticketSelect = `
	SELECT id, event_id, type_name, price, purchase_date, user_id, is_guest, guest_email, guest_name, session_id, used, scanned_at
	FROM tickets
`

// PostgresTicketRepository implements TicketRepository using
// PostgreSQL with pgxpool
type PostgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository creates a new PostgresTicketRepository
func NewPostgresTicketRepository(pool *pgxpool.Pool) *PostgresTicketRepository {
	return &PostgresTicketRepository{pool: pool}
}

var _ TicketRepository = (*PostgresTicketRepository)(nil)

// GetByID retrieves a ticket by its ID
func (r *PostgresTicketRepository) GetByID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.String("ticket_id", ticketID))

	ticket, err := scanTicket(r.pool.QueryRow(ctx, ticketSelect+` WHERE id = $1`, ticketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrTicketNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return ticket, nil
}

// Redeem performs the atomic first-scan transition. The ticket row is
// locked so concurrent stations serialize: exactly one caller sees
// scanned_at unset and writes it, every later caller gets the stored
// record back with firstScan=false. A wrong-event scan never mutates.
func (r *PostgresTicketRepository) Redeem(ctx context.Context, ticketID, eventID string, now time.Time) (*domain.Ticket, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.redeem")
	defer span.End()

	span.SetAttributes(
		attribute.String("ticket_id", ticketID),
		attribute.String("event_id", eventID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ticket, err := scanTicket(tx.QueryRow(ctx, ticketSelect+` WHERE id = $1 FOR UPDATE`, ticketID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, false, domain.ErrTicketNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("failed to lock ticket: %w", err)
	}

	if ticket.EventID != eventID {
		span.SetStatus(codes.Error, "wrong event")
		return nil, false, domain.ErrWrongEvent
	}

	if ticket.ScannedAt != nil {
		span.SetAttributes(attribute.Bool("first_scan", false))
		span.SetStatus(codes.Ok, "")
		return ticket, false, nil
	}

	scannedAt := now.UTC()
	_, err = tx.Exec(ctx, `
		UPDATE tickets SET used = true, scanned_at = $2 WHERE id = $1
	`, ticketID, scannedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("failed to redeem ticket: %w", err)
	}

	redeemed, err := json.Marshal(domain.TicketRedeemedEvent{
		TicketID:   ticket.ID,
		EventID:    ticket.EventID,
		TypeName:   ticket.TypeName,
		RedeemedAt: scannedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("failed to marshal redeemed event: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO outbox (kind, topic, key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, domain.OutboxKindEvent, domain.TopicTicketRedeemed, ticket.ID, redeemed, scannedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("failed to commit redemption: %w", err)
	}

	ticket.Used = true
	ticket.ScannedAt = &scannedAt

	span.SetAttributes(attribute.Bool("first_scan", true))
	span.SetStatus(codes.Ok, "")
	return ticket, true, nil
}

// ListByEvent retrieves tickets issued for an event
func (r *PostgresTicketRepository) ListByEvent(ctx context.Context, eventID string, limit, offset int) ([]*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.list_by_event")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	rows, err := r.pool.Query(ctx, ticketSelect+`
		WHERE event_id = $1
		ORDER BY purchase_date DESC
		LIMIT $2 OFFSET $3
	`, eventID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list tickets by event: %w", err)
	}
	defer rows.Close()

	tickets, err := collectTickets(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return tickets, nil
}

// ListByUser retrieves tickets owned by a user
func (r *PostgresTicketRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.ticket.list_by_user")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	rows, err := r.pool.Query(ctx, ticketSelect+`
		WHERE user_id = $1
		ORDER BY purchase_date DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to list tickets by user: %w", err)
	}
	defer rows.Close()

	tickets, err := collectTickets(rows)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return tickets, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	ticket := &domain.Ticket{}
	var (
		userID     *string
		guestEmail *string
		guestName  *string
		sessionID  *string
		scannedAt  *time.Time
	)

	err := row.Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.TypeName,
		&ticket.Price,
		&ticket.PurchaseDate,
		&userID,
		&ticket.IsGuest,
		&guestEmail,
		&guestName,
		&sessionID,
		&ticket.Used,
		&scannedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID != nil {
		ticket.UserID = *userID
	}
	if guestEmail != nil {
		ticket.GuestEmail = *guestEmail
	}
	if guestName != nil {
		ticket.GuestName = *guestName
	}
	if sessionID != nil {
		ticket.SessionID = *sessionID
	}
	ticket.ScannedAt = scannedAt

	return ticket, nil
}

func collectTickets(rows pgx.Rows) ([]*domain.Ticket, error) {
	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tickets: %w", err)
	}
	return tickets, nil
}
