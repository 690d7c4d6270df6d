package service

import (
	"context"
	"sync"
	"time"

	"github.com/eventease/ticketing/pkg/kafka"
)

// EventPublisher delivers integration events to the message broker.
// Only the outbox worker publishes; the request path never does.
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher using the Kafka producer
type KafkaEventPublisher struct {
	producer *kafka.Producer
}

// NewKafkaEventPublisher creates a Kafka-backed publisher
func NewKafkaEventPublisher(producer *kafka.Producer) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

var _ EventPublisher = (*KafkaEventPublisher)(nil)

func (p *KafkaEventPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	return p.producer.Produce(ctx, &kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Headers: map[string]string{
			"content_type": "application/json",
			"source":       "outbox-worker",
		},
		Timestamp: time.Now(),
	})
}

func (p *KafkaEventPublisher) Close() error {
	p.producer.Close()
	return nil
}

// NoOpEventPublisher discards events; used when Kafka is disabled
type NoOpEventPublisher struct{}

// NewNoOpEventPublisher creates a publisher that drops everything
func NewNoOpEventPublisher() *NoOpEventPublisher {
	return &NoOpEventPublisher{}
}

var _ EventPublisher = (*NoOpEventPublisher)(nil)

func (p *NoOpEventPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	return nil
}

func (p *NoOpEventPublisher) Close() error { return nil }

// MockEventPublisher records published events for tests
type MockEventPublisher struct {
	mu sync.Mutex

	PublishFunc func(ctx context.Context, topic, key string, payload []byte) error

	Published []PublishedEvent
}

// PublishedEvent is one recorded publish call
type PublishedEvent struct {
	Topic   string
	Key     string
	Payload []byte
}

var _ EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if m.PublishFunc != nil {
		if err := m.PublishFunc(ctx, topic, key, payload); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Published = append(m.Published, PublishedEvent{Topic: topic, Key: key, Payload: payload})
	m.mu.Unlock()
	return nil
}

func (m *MockEventPublisher) Close() error { return nil }

// PublishedCount returns how many events were recorded
func (m *MockEventPublisher) PublishedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Published)
}
