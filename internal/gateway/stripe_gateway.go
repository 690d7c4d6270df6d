package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Metadata keys carried through the checkout session
const (
	metaEventID    = "event_id"
	metaTicketType = "ticket_type"
	metaUserID     = "user_id"
	metaGuestEmail = "guest_email"
	metaGuestName  = "guest_name"
)

// StripeGateway implements PaymentGateway using Stripe Checkout
type StripeGateway struct {
	config *StripeGatewayConfig
}

// StripeGatewayConfig holds configuration for the Stripe gateway
type StripeGatewayConfig struct {
	SecretKey     string
	WebhookSecret string
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	if config.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret is required")
	}

	stripe.Key = config.SecretKey

	return &StripeGateway{config: config}, nil
}

var _ PaymentGateway = (*StripeGateway)(nil)

// CreateCheckoutSession creates a hosted checkout session for one ticket
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error) {
	if params == nil {
		return nil, fmt.Errorf("checkout params are required")
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(params.Currency),
					UnitAmount: stripe.Int64(params.Amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.TypeName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			metaEventID:    params.EventID,
			metaTicketType: params.TypeName,
			metaUserID:     params.UserID,
			metaGuestEmail: params.GuestEmail,
			metaGuestName:  params.GuestName,
		},
	}
	if params.GuestEmail != "" {
		sessionParams.CustomerEmail = stripe.String(params.GuestEmail)
	}

	s, err := session.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// VerifyWebhook checks the Stripe signature and extracts a payment
// confirmation from checkout.session.completed events. Other event
// types return (nil, nil) and are acknowledged without settlement.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*PaymentConfirmed, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.config.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	if event.Type != "checkout.session.completed" {
		return nil, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}

	return &PaymentConfirmed{
		SessionID:  s.ID,
		EventID:    s.Metadata[metaEventID],
		TypeName:   s.Metadata[metaTicketType],
		Amount:     s.AmountTotal,
		UserID:     s.Metadata[metaUserID],
		GuestEmail: s.Metadata[metaGuestEmail],
		GuestName:  s.Metadata[metaGuestName],
	}, nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}
