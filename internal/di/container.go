package di

import (
	"github.com/eventease/ticketing/internal/clock"
	"github.com/eventease/ticketing/internal/gateway"
	"github.com/eventease/ticketing/internal/handler"
	"github.com/eventease/ticketing/internal/repository"
	"github.com/eventease/ticketing/internal/service"
	"github.com/eventease/ticketing/pkg/config"
	"github.com/eventease/ticketing/pkg/database"
	"github.com/eventease/ticketing/pkg/redis"
)

// Container holds all dependencies for the ticketing service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories
	InventoryRepo repository.InventoryRepository
	TicketRepo    repository.TicketRepository
	GuestRepo     repository.GuestRepository
	OutboxRepo    repository.OutboxRepository

	// Gateways
	Payments gateway.PaymentGateway

	// Services
	EventService      service.EventService
	SettlementService service.SettlementService
	CheckoutService   service.CheckoutService
	RedemptionService service.RedemptionService
	TicketService     service.TicketService
	GuestService      service.GuestService

	// Handlers
	HealthHandler   *handler.HealthHandler
	EventHandler    *handler.EventHandler
	PurchaseHandler *handler.PurchaseHandler
	WebhookHandler  *handler.WebhookHandler
	ScanHandler     *handler.ScanHandler
	TicketHandler   *handler.TicketHandler
	GuestHandler    *handler.GuestHandler
	StationHandler  *handler.StationHandler
}

// ContainerConfig contains configuration for building the container
type ContainerConfig struct {
	Config        *config.Config
	DB            *database.PostgresDB
	Redis         *redis.Client
	InventoryRepo repository.InventoryRepository
	TicketRepo    repository.TicketRepository
	GuestRepo     repository.GuestRepository
	OutboxRepo    repository.OutboxRepository
	Payments      gateway.PaymentGateway
	Clock         clock.Clock
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *ContainerConfig) *Container {
	c := &Container{
		DB:            cfg.DB,
		Redis:         cfg.Redis,
		InventoryRepo: cfg.InventoryRepo,
		TicketRepo:    cfg.TicketRepo,
		GuestRepo:     cfg.GuestRepo,
		OutboxRepo:    cfg.OutboxRepo,
		Payments:      cfg.Payments,
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewSystem()
	}

	appCfg := cfg.Config

	// Initialize services
	c.EventService = service.NewEventService(c.InventoryRepo, c.TicketRepo)
	c.SettlementService = service.NewSettlementService(c.InventoryRepo, clk)
	c.CheckoutService = service.NewCheckoutService(c.InventoryRepo, c.Payments, &service.CheckoutServiceConfig{
		Currency:   appCfg.Ticketing.DefaultCurrency,
		SuccessURL: appCfg.Stripe.SuccessURL,
		CancelURL:  appCfg.Stripe.CancelURL,
	})
	c.RedemptionService = service.NewRedemptionService(c.TicketRepo, clk, &service.RedemptionServiceConfig{
		GraceWindow: appCfg.Ticketing.ScanGraceWindow,
	})
	c.TicketService = service.NewTicketService(c.TicketRepo)
	c.GuestService = service.NewGuestService(c.GuestRepo)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.PurchaseHandler = handler.NewPurchaseHandler(c.SettlementService, c.CheckoutService)
	c.WebhookHandler = handler.NewWebhookHandler(c.Payments, c.SettlementService)
	c.ScanHandler = handler.NewScanHandler(c.RedemptionService)
	c.TicketHandler = handler.NewTicketHandler(c.TicketService)
	c.GuestHandler = handler.NewGuestHandler(c.GuestService)
	c.StationHandler = handler.NewStationHandler(appCfg.Station.JWTSecret, appCfg.Station.TokenTTL)

	return c
}
