package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/pkg/telemetry"
)

// PostgresOutboxRepository implements OutboxRepository using
// PostgreSQL. Rows are inserted by the settlement and redemption
// transactions; this repository only drains them.
type PostgresOutboxRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresOutboxRepository creates a new PostgresOutboxRepository
func NewPostgresOutboxRepository(pool *pgxpool.Pool) *PostgresOutboxRepository {
	return &PostgresOutboxRepository{pool: pool}
}

var _ OutboxRepository = (*PostgresOutboxRepository)(nil)

// outboxClaimTTL bounds how long a fetched row stays invisible to
// other workers. A worker that dies mid-batch loses its claim and the
// rows are re-delivered after the TTL (delivery is at-least-once).
const outboxClaimTTL = time.Minute

// FetchPending claims up to limit unpublished messages and returns
// them in insertion order. Claimed rows are skipped by concurrent
// workers until the claim lapses.
func (r *PostgresOutboxRepository) FetchPending(ctx context.Context, limit int) ([]*domain.OutboxMessage, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.outbox.fetch_pending")
	defer span.End()

	now := time.Now().UTC()
	rows, err := r.pool.Query(ctx, `
		WITH claimed AS (
			UPDATE outbox SET claimed_until = $2
			WHERE id IN (
				SELECT id FROM outbox
				WHERE published_at IS NULL
				  AND (claimed_until IS NULL OR claimed_until < $3)
				ORDER BY id
				LIMIT $1
				FOR UPDATE SKIP LOCKED
			)
			RETURNING id, kind, topic, key, payload, attempts, created_at
		)
		SELECT id, kind, topic, key, payload, attempts, created_at
		FROM claimed
		ORDER BY id
	`, limit, now.Add(outboxClaimTTL), now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to fetch outbox messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.OutboxMessage
	for rows.Next() {
		msg := &domain.OutboxMessage{}
		if err := rows.Scan(&msg.ID, &msg.Kind, &msg.Topic, &msg.Key, &msg.Payload, &msg.Attempts, &msg.CreatedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan outbox message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to read outbox messages: %w", err)
	}

	span.SetAttributes(attribute.Int("count", len(messages)))
	span.SetStatus(codes.Ok, "")
	return messages, nil
}

// MarkPublished stamps messages as delivered
func (r *PostgresOutboxRepository) MarkPublished(ctx context.Context, ids []int64, publishedAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.outbox.mark_published")
	defer span.End()

	span.SetAttributes(attribute.Int("count", len(ids)))

	_, err := r.pool.Exec(ctx, `
		UPDATE outbox SET published_at = $2, claimed_until = NULL WHERE id = ANY($1)
	`, ids, publishedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to mark outbox published: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// MarkFailed bumps the attempt counter and releases the claim; the
// message stays pending and will be picked up again
func (r *PostgresOutboxRepository) MarkFailed(ctx context.Context, id int64) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.outbox.mark_failed")
	defer span.End()

	span.SetAttributes(attribute.Int64("outbox_id", id))

	_, err := r.pool.Exec(ctx, `
		UPDATE outbox SET attempts = attempts + 1, claimed_until = NULL WHERE id = $1
	`, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to mark outbox failed: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}
