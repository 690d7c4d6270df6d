package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/pkg/retry"
	"github.com/eventease/ticketing/pkg/telemetry"
)

// errLedgerConflict signals that a concurrent settlement won the
// ledger insert race for the same payment session.
var errLedgerConflict = errors.New("settlement ledger conflict")

// PostgresInventoryRepository implements InventoryRepository using
// PostgreSQL with pgxpool. Settlement runs as one transaction with
// row locks; transient serialization aborts are retried.
type PostgresInventoryRepository struct {
	pool    *pgxpool.Pool
	retrier *retry.Retrier
}

// NewPostgresInventoryRepository creates a new PostgresInventoryRepository
func NewPostgresInventoryRepository(pool *pgxpool.Pool, retryCfg *retry.Config) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{
		pool:    pool,
		retrier: retry.New(retryCfg),
	}
}

var _ InventoryRepository = (*PostgresInventoryRepository)(nil)

// CreateEvent persists an event and its ticket types
func (r *PostgresInventoryRepository) CreateEvent(ctx context.Context, event *domain.Event) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.create_event")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.String("tenant_id", event.TenantID),
	)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO events (id, tenant_id, name, current_guests, guest_limit, starts_at, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, $5, $6, $7)
	`, event.ID, event.TenantID, event.Name, event.GuestLimit, event.StartsAt, event.CreatedAt, event.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to insert event: %w", err)
	}

	for i, tt := range event.TicketTypes {
		_, err = tx.Exec(ctx, `
			INSERT INTO ticket_types (event_id, name, position, price, quantity, sold)
			VALUES ($1, $2, $3, $4, $5, 0)
		`, event.ID, tt.Name, i, tt.Price, tt.Quantity)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to insert ticket type %q: %w", tt.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to commit event creation: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetEvent retrieves an event with its ticket types
func (r *PostgresInventoryRepository) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.get_event")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	event := &domain.Event{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, current_guests, guest_limit, starts_at, created_at, updated_at
		FROM events
		WHERE id = $1
	`, eventID).Scan(
		&event.ID,
		&event.TenantID,
		&event.Name,
		&event.CurrentGuests,
		&event.GuestLimit,
		&event.StartsAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrEventNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT name, price, quantity, sold
		FROM ticket_types
		WHERE event_id = $1
		ORDER BY position
	`, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to get ticket types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tt domain.TicketType
		if err := rows.Scan(&tt.Name, &tt.Price, &tt.Quantity, &tt.Sold); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan ticket type: %w", err)
		}
		event.TicketTypes = append(event.TicketTypes, tt)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read ticket types: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return event, nil
}

// SettlePurchase atomically decrements inventory and issues a ticket.
// The transaction covers the sold-out check, the counter updates, the
// ticket insert, the guest upsert, the session dedup ledger, and the
// outbox rows. Serialization aborts and ledger races are retried; a
// replayed session returns the previously issued ticket.
func (r *PostgresInventoryRepository) SettlePurchase(ctx context.Context, params *SettleParams) (*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.settle_purchase")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", params.EventID),
		attribute.String("ticket_type", params.TypeName),
		attribute.Bool("is_guest", params.IsGuest),
	)

	var ticket *domain.Ticket
	err := r.retrier.Do(ctx, func(ctx context.Context) error {
		if params.SessionID != "" {
			existing, err := r.FindTicketBySession(ctx, params.SessionID)
			if err == nil {
				ticket = existing
				return nil
			}
			if !errors.Is(err, domain.ErrTicketNotFound) {
				return err
			}
		}

		t, err := r.settleTx(ctx, params)
		if err != nil {
			if isTransientTxError(err) || errors.Is(err, errLedgerConflict) {
				return retry.Retryable(err)
			}
			return err
		}
		ticket = t
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return ticket, nil
}

func (r *PostgresInventoryRepository) settleTx(ctx context.Context, params *SettleParams) (*domain.Ticket, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the event row; current_guests is updated below
	var currentGuests int
	err = tx.QueryRow(ctx, `
		SELECT current_guests FROM events WHERE id = $1 FOR UPDATE
	`, params.EventID).Scan(&currentGuests)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}

	// Lock the type row; the sold-out check and the decrement must see
	// the same state
	var price int64
	var quantity int
	err = tx.QueryRow(ctx, `
		SELECT price, quantity FROM ticket_types
		WHERE event_id = $1 AND name = $2
		FOR UPDATE
	`, params.EventID, params.TypeName).Scan(&price, &quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketTypeNotFound
		}
		return nil, fmt.Errorf("failed to lock ticket type: %w", err)
	}

	if quantity <= 0 {
		return nil, domain.ErrSoldOut
	}

	_, err = tx.Exec(ctx, `
		UPDATE ticket_types SET quantity = quantity - 1, sold = sold + 1
		WHERE event_id = $1 AND name = $2
	`, params.EventID, params.TypeName)
	if err != nil {
		return nil, fmt.Errorf("failed to decrement inventory: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE events SET current_guests = current_guests + 1, updated_at = $2
		WHERE id = $1
	`, params.EventID, params.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to increment guest counter: %w", err)
	}

	ticket := &domain.Ticket{
		ID:           params.TicketID,
		EventID:      params.EventID,
		TypeName:     params.TypeName,
		Price:        price,
		PurchaseDate: params.Now,
		UserID:       params.UserID,
		IsGuest:      params.IsGuest,
		GuestEmail:   params.GuestEmail,
		GuestName:    params.GuestName,
		SessionID:    params.SessionID,
		Used:         false,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tickets (id, event_id, type_name, price, purchase_date, user_id, is_guest, guest_email, guest_name, session_id, used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, false)
	`, ticket.ID, ticket.EventID, ticket.TypeName, ticket.Price, ticket.PurchaseDate,
		nullString(ticket.UserID), ticket.IsGuest, nullString(ticket.GuestEmail),
		nullString(ticket.GuestName), nullString(ticket.SessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to insert ticket: %w", err)
	}

	// Session dedup ledger; losing the insert race means a concurrent
	// settlement of the same session is committing
	if params.SessionID != "" {
		ct, err := tx.Exec(ctx, `
			INSERT INTO settlement_ledger (session_id, ticket_id, settled_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (session_id) DO NOTHING
		`, params.SessionID, ticket.ID, params.Now)
		if err != nil {
			return nil, fmt.Errorf("failed to insert settlement ledger: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return nil, errLedgerConflict
		}
	}

	if params.IsGuest && params.GuestEmail != "" {
		_, err = tx.Exec(ctx, `
			INSERT INTO guests (email, name, ticket_ids, created_at, updated_at)
			VALUES ($1, $2, ARRAY[$3], $4, $4)
			ON CONFLICT (email) DO UPDATE SET
				name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE guests.name END,
				ticket_ids = array_append(guests.ticket_ids, $3),
				updated_at = EXCLUDED.updated_at
		`, params.GuestEmail, params.GuestName, ticket.ID, params.Now)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert guest: %w", err)
		}
	}

	if err := r.insertOutbox(ctx, tx, ticket); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}
	return ticket, nil
}

func (r *PostgresInventoryRepository) insertOutbox(ctx context.Context, tx pgx.Tx, ticket *domain.Ticket) error {
	issued, err := json.Marshal(domain.TicketIssuedEvent{
		TicketID:  ticket.ID,
		EventID:   ticket.EventID,
		TypeName:  ticket.TypeName,
		Price:     ticket.Price,
		UserID:    ticket.UserID,
		IsGuest:   ticket.IsGuest,
		IssuedAt:  ticket.PurchaseDate,
		SessionID: ticket.SessionID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal issued event: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO outbox (kind, topic, key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, domain.OutboxKindEvent, domain.TopicTicketIssued, ticket.ID, issued, ticket.PurchaseDate)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}

	if email := ticket.ContactEmail(); email != "" {
		confirmation, err := json.Marshal(domain.ConfirmationEmail{
			To:       email,
			Name:     ticket.GuestName,
			TicketID: ticket.ID,
			EventID:  ticket.EventID,
			TypeName: ticket.TypeName,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal confirmation email: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO outbox (kind, topic, key, payload, created_at)
			VALUES ($1, '', $2, $3, $4)
		`, domain.OutboxKindEmail, ticket.ID, confirmation, ticket.PurchaseDate)
		if err != nil {
			return fmt.Errorf("failed to insert outbox email: %w", err)
		}
	}

	return nil
}

// FindTicketBySession looks up the ticket issued for a payment session
func (r *PostgresInventoryRepository) FindTicketBySession(ctx context.Context, sessionID string) (*domain.Ticket, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.inventory.find_ticket_by_session")
	defer span.End()

	span.SetAttributes(attribute.String("session_id", sessionID))

	ticket, err := scanTicket(r.pool.QueryRow(ctx, ticketSelect+` WHERE session_id = $1`, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "not found")
			return nil, domain.ErrTicketNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to find ticket by session: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return ticket, nil
}

// isTransientTxError reports serialization failures and deadlocks
// (SQLSTATE 40001 / 40P01) that are safe to retry.
func isTransientTxError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
