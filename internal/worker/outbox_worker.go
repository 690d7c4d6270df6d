package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/gateway"
	"github.com/eventease/ticketing/internal/metrics"
	"github.com/eventease/ticketing/internal/repository"
	"github.com/eventease/ticketing/internal/service"
	"github.com/eventease/ticketing/pkg/logger"
)

// OutboxWorkerConfig contains configuration for the outbox worker
type OutboxWorkerConfig struct {
	// PollInterval is the interval between polls for pending messages
	PollInterval time.Duration
	// BatchSize is the number of messages fetched per poll
	BatchSize int
}

// DefaultOutboxWorkerConfig returns default configuration
func DefaultOutboxWorkerConfig() *OutboxWorkerConfig {
	return &OutboxWorkerConfig{
		PollInterval: 200 * time.Millisecond,
		BatchSize:    100,
	}
}

// OutboxWorker drains the outbox table: integration events go to the
// broker, email intents go to the sender. A message stays pending
// until its delivery succeeds, so failures are retried on later polls.
type OutboxWorker struct {
	outboxRepo repository.OutboxRepository
	publisher  service.EventPublisher
	emails     gateway.EmailSender
	config     *OutboxWorkerConfig
	log        *logger.Logger
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// NewOutboxWorker creates a new outbox worker
func NewOutboxWorker(
	outboxRepo repository.OutboxRepository,
	publisher service.EventPublisher,
	emails gateway.EmailSender,
	config *OutboxWorkerConfig,
) *OutboxWorker {
	if config == nil {
		config = DefaultOutboxWorkerConfig()
	}
	if publisher == nil {
		publisher = service.NewNoOpEventPublisher()
	}
	if emails == nil {
		emails = gateway.NewLogEmailSender()
	}

	return &OutboxWorker{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		emails:     emails,
		config:     config,
		log:        logger.Get(),
		stopCh:     make(chan struct{}),
	}
}

// Start starts the polling loop
func (w *OutboxWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("outbox worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("starting outbox worker",
		zap.Duration("poll_interval", w.config.PollInterval),
		zap.Int("batch_size", w.config.BatchSize),
	)

	w.wg.Add(1)
	go w.poll(ctx)
	return nil
}

// Stop stops the worker and waits for the in-flight batch
func (w *OutboxWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("outbox worker stopped")
}

func (w *OutboxWorker) poll(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch fetches and delivers one batch of pending messages.
// Exported so tests and the worker binary can drive it directly.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) {
	messages, err := w.outboxRepo.FetchPending(ctx, w.config.BatchSize)
	if err != nil {
		w.log.Error("failed to fetch outbox messages", zap.Error(err))
		return
	}

	var published []int64
	for _, msg := range messages {
		if err := w.deliver(ctx, msg); err != nil {
			w.log.Error("failed to deliver outbox message",
				zap.Int64("outbox_id", msg.ID),
				zap.String("kind", msg.Kind),
				zap.Int("attempts", msg.Attempts),
				zap.Error(err),
			)
			metrics.RecordOutboxFailure(ctx, msg.Kind)
			if markErr := w.outboxRepo.MarkFailed(ctx, msg.ID); markErr != nil {
				w.log.Error("failed to mark outbox message failed",
					zap.Int64("outbox_id", msg.ID), zap.Error(markErr))
			}
			continue
		}
		published = append(published, msg.ID)
		metrics.RecordOutboxPublished(ctx, msg.Kind, 1)
	}

	if len(published) > 0 {
		if err := w.outboxRepo.MarkPublished(ctx, published, time.Now().UTC()); err != nil {
			// Messages will be re-delivered next poll; consumers must
			// tolerate duplicates
			w.log.Error("failed to mark outbox messages published", zap.Error(err))
		}
	}
}

func (w *OutboxWorker) deliver(ctx context.Context, msg *domain.OutboxMessage) error {
	switch msg.Kind {
	case domain.OutboxKindEvent:
		return w.publisher.Publish(ctx, msg.Topic, msg.Key, msg.Payload)
	case domain.OutboxKindEmail:
		var email domain.ConfirmationEmail
		if err := json.Unmarshal(msg.Payload, &email); err != nil {
			return fmt.Errorf("failed to parse confirmation email: %w", err)
		}
		return w.emails.SendConfirmation(ctx, &email)
	default:
		return fmt.Errorf("unknown outbox kind: %s", msg.Kind)
	}
}
