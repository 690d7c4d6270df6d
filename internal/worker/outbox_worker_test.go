package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventease/ticketing/internal/clock"
	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/internal/gateway"
	"github.com/eventease/ticketing/internal/repository"
	"github.com/eventease/ticketing/internal/service"
)

func settleOne(t *testing.T, store *repository.MemoryStore) {
	t.Helper()

	event, err := domain.NewEvent("tenant-001", "Launch Party", time.Now().Add(24*time.Hour), 0,
		[]domain.TicketType{{Name: "general", Price: 0, Quantity: 10}})
	require.NoError(t, err)
	require.NoError(t, store.CreateEvent(context.Background(), event))

	settle := service.NewSettlementService(store, clock.NewSystem())
	_, err = settle.Settle(context.Background(), &service.SettleInput{
		EventID:    event.ID,
		TypeName:   "general",
		GuestEmail: "ana@example.com",
		GuestName:  "Ana",
	})
	require.NoError(t, err)
}

func TestOutboxWorker_ProcessBatch_DeliversAndMarksPublished(t *testing.T) {
	store := repository.NewMemoryStore()
	settleOne(t, store)

	publisher := &service.MockEventPublisher{}
	emails := &gateway.MockEmailSender{}
	w := NewOutboxWorker(store, publisher, emails, nil)

	w.ProcessBatch(context.Background())

	// One settlement produces one integration event and one email intent
	assert.Equal(t, 1, publisher.PublishedCount())
	assert.Equal(t, domain.TopicTicketIssued, publisher.Published[0].Topic)
	assert.Equal(t, 1, emails.SentCount())
	assert.Equal(t, "ana@example.com", emails.Sent[0].To)

	// A second pass finds nothing pending
	w.ProcessBatch(context.Background())
	assert.Equal(t, 1, publisher.PublishedCount())
	assert.Equal(t, 1, emails.SentCount())

	for _, msg := range store.OutboxMessages() {
		assert.NotNil(t, msg.PublishedAt, "outbox id %d still pending", msg.ID)
	}
}

func TestOutboxWorker_ProcessBatch_RetriesFailedDelivery(t *testing.T) {
	store := repository.NewMemoryStore()
	settleOne(t, store)

	broken := errors.New("broker unavailable")
	publisher := &service.MockEventPublisher{
		PublishFunc: func(ctx context.Context, topic, key string, payload []byte) error {
			return broken
		},
	}
	emails := &gateway.MockEmailSender{}
	w := NewOutboxWorker(store, publisher, emails, nil)

	w.ProcessBatch(context.Background())

	// The event stays pending with a bumped attempt counter, the email
	// still went out
	assert.Equal(t, 0, publisher.PublishedCount())
	assert.Equal(t, 1, emails.SentCount())

	var pendingEvents int
	for _, msg := range store.OutboxMessages() {
		if msg.Kind == domain.OutboxKindEvent && msg.PublishedAt == nil {
			pendingEvents++
			assert.Equal(t, 1, msg.Attempts)
		}
	}
	assert.Equal(t, 1, pendingEvents)

	// Broker recovers, the next poll drains it
	publisher.PublishFunc = nil
	w.ProcessBatch(context.Background())
	assert.Equal(t, 1, publisher.PublishedCount())

	for _, msg := range store.OutboxMessages() {
		assert.NotNil(t, msg.PublishedAt)
	}
}

func TestOutboxWorker_ConcurrentWorkersDeliverOnce(t *testing.T) {
	store := repository.NewMemoryStore()
	settleOne(t, store)

	publisher := &service.MockEventPublisher{}
	emails := &gateway.MockEmailSender{}
	workers := []*OutboxWorker{
		NewOutboxWorker(store, publisher, emails, nil),
		NewOutboxWorker(store, publisher, emails, nil),
	}

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *OutboxWorker) {
			defer wg.Done()
			w.ProcessBatch(context.Background())
		}(w)
	}
	wg.Wait()

	// Two replicas polling the same outbox: the fetch claim must keep
	// each message with exactly one of them
	assert.Equal(t, 1, publisher.PublishedCount())
	assert.Equal(t, 1, emails.SentCount())

	for _, msg := range store.OutboxMessages() {
		assert.NotNil(t, msg.PublishedAt, "outbox id %d still pending", msg.ID)
	}
}

func TestOutboxWorker_StartStop(t *testing.T) {
	store := repository.NewMemoryStore()
	settleOne(t, store)

	publisher := &service.MockEventPublisher{}
	w := NewOutboxWorker(store, publisher, &gateway.MockEmailSender{}, &OutboxWorkerConfig{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    100,
	})

	require.NoError(t, w.Start(context.Background()))
	assert.Error(t, w.Start(context.Background()), "second Start must fail")

	deadline := time.After(2 * time.Second)
	for publisher.PublishedCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("worker never delivered the pending message")
		case <-time.After(10 * time.Millisecond):
		}
	}

	w.Stop()
	// Stop is idempotent
	w.Stop()
}
