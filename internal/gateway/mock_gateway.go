package gateway

import (
	"context"
	"fmt"
	"sync"
)

// MockGateway is a test double for PaymentGateway
type MockGateway struct {
	mu sync.Mutex

	CreateCheckoutSessionFunc func(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error)
	VerifyWebhookFunc         func(payload []byte, signature string) (*PaymentConfirmed, error)

	CreatedSessions []*CheckoutParams
}

var _ PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error) {
	m.mu.Lock()
	m.CreatedSessions = append(m.CreatedSessions, params)
	m.mu.Unlock()

	if m.CreateCheckoutSessionFunc != nil {
		return m.CreateCheckoutSessionFunc(ctx, params)
	}
	return &CheckoutSession{
		ID:  fmt.Sprintf("cs_test_%d", len(m.CreatedSessions)),
		URL: "https://checkout.example.com/session",
	}, nil
}

func (m *MockGateway) VerifyWebhook(payload []byte, signature string) (*PaymentConfirmed, error) {
	if m.VerifyWebhookFunc != nil {
		return m.VerifyWebhookFunc(payload, signature)
	}
	return nil, nil
}

func (m *MockGateway) Name() string {
	return "mock"
}
