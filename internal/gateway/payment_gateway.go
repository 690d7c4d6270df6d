package gateway

import (
	"context"
	"errors"
)

// ErrGatewayDisabled is returned when no payment gateway is configured
var ErrGatewayDisabled = errors.New("payment gateway is not configured")

// CheckoutParams describes one paid ticket checkout. Metadata is
// echoed back in the payment confirmation and carries everything the
// settlement needs to run without extra lookups.
type CheckoutParams struct {
	EventID    string
	TypeName   string
	Amount     int64 // minor units
	Currency   string
	UserID     string
	GuestEmail string
	GuestName  string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is a created hosted-checkout session
type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentConfirmed is the parsed payment confirmation that triggers
// settlement. Delivery is at-least-once; settlement dedups by
// SessionID.
type PaymentConfirmed struct {
	SessionID  string
	EventID    string
	TypeName   string
	Amount     int64
	UserID     string
	GuestEmail string
	GuestName  string
}

// PaymentGateway is the narrow contract with the hosted payments API
type PaymentGateway interface {
	// CreateCheckoutSession starts a hosted checkout for a paid ticket
	CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error)
	// VerifyWebhook authenticates a raw webhook delivery and returns
	// the confirmation, or (nil, nil) for event types the core ignores
	VerifyWebhook(payload []byte, signature string) (*PaymentConfirmed, error)
	// Name returns the gateway name
	Name() string
}

// DisabledGateway rejects paid checkouts. Used when no gateway
// credentials are configured; free-ticket settlement still works.
type DisabledGateway struct{}

// NewDisabledGateway creates a gateway that refuses paid flows
func NewDisabledGateway() *DisabledGateway {
	return &DisabledGateway{}
}

var _ PaymentGateway = (*DisabledGateway)(nil)

func (g *DisabledGateway) CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error) {
	return nil, ErrGatewayDisabled
}

func (g *DisabledGateway) VerifyWebhook(payload []byte, signature string) (*PaymentConfirmed, error) {
	return nil, ErrGatewayDisabled
}

func (g *DisabledGateway) Name() string {
	return "disabled"
}
