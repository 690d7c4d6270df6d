package gateway

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/eventease/ticketing/internal/domain"
	"github.com/eventease/ticketing/pkg/logger"
)

// EmailSender delivers confirmation mail. Delivery is best effort:
// failures are retried by the outbox worker and never affect ticket
// validity.
type EmailSender interface {
	SendConfirmation(ctx context.Context, email *domain.ConfirmationEmail) error
}

// LogEmailSender logs confirmations instead of sending them; the
// default when no mail provider is configured.
type LogEmailSender struct {
	log *logger.Logger
}

// NewLogEmailSender creates a log-only email sender
func NewLogEmailSender() *LogEmailSender {
	return &LogEmailSender{log: logger.Get()}
}

var _ EmailSender = (*LogEmailSender)(nil)

func (s *LogEmailSender) SendConfirmation(ctx context.Context, email *domain.ConfirmationEmail) error {
	s.log.Info("confirmation email",
		zap.String("to", email.To),
		zap.String("ticket_id", email.TicketID),
		zap.String("event_id", email.EventID),
	)
	return nil
}

// MockEmailSender records confirmations for tests
type MockEmailSender struct {
	mu sync.Mutex

	SendConfirmationFunc func(ctx context.Context, email *domain.ConfirmationEmail) error

	Sent []*domain.ConfirmationEmail
}

var _ EmailSender = (*MockEmailSender)(nil)

func (m *MockEmailSender) SendConfirmation(ctx context.Context, email *domain.ConfirmationEmail) error {
	if m.SendConfirmationFunc != nil {
		if err := m.SendConfirmationFunc(ctx, email); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Sent = append(m.Sent, email)
	m.mu.Unlock()
	return nil
}

// SentCount returns how many confirmations were recorded
func (m *MockEmailSender) SentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}
