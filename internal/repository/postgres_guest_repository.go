package repository

import (
	"context"
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

// PostgresGuestRepository implements GuestRepository using PostgreSQL
type PostgresGuestRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresGuestRepository creates a new PostgresGuestRepository
func NewPostgresGuestRepository(pool *pgxpool.Pool) *PostgresGuestRepository {
	return &PostgresGuestRepository{pool: pool}
}

var _ GuestRepository = (*PostgresGuestRepository)(nil)

// Upsert accumulates a ticket purchase into the guest profile keyed
// by contact email
func (r *PostgresGuestRepository) Upsert(ctx context.Context, email, name, ticketID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.guest.upsert")
	defer span.End()

	span.SetAttributes(attribute.String("ticket_id", ticketID))

	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO guests (email, name, ticket_ids, created_at, updated_at)
		VALUES ($1, $2, ARRAY[$3], $4, $4)
		ON CONFLICT (email) DO UPDATE SET
			name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE guests.name END,
			ticket_ids = array_append(guests.ticket_ids, $3),
			updated_at = EXCLUDED.updated_at
	`, email, name, ticketID, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to upsert guest: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByEmail retrieves a guest profile by contact email
func (r *PostgresGuestRepository) GetByEmail(ctx context.Context, email string) (*domain.GuestProfile, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.guest.get_by_email")
	defer span.End()

	guest := &domain.GuestProfile{}
	err := r.pool.QueryRow(ctx, `
		SELECT email, name, ticket_ids, created_at, updated_at
		FROM guests
		WHERE email = $1
	`, email).Scan(
		&guest.Email,
		&guest.Name,
		&guest.TicketIDs,
		&guest.CreatedAt,
		&guest.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrGuestNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get guest: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return guest, nil
}
