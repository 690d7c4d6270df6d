package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // pprof sidecar for profiling
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eventease/ticketing/internal/di"
	"github.com/eventease/ticketing/internal/gateway"
	"github.com/eventease/ticketing/internal/metrics"
	"github.com/eventease/ticketing/internal/repository"
	"github.com/eventease/ticketing/pkg/config"
	"github.com/eventease/ticketing/pkg/database"
	"github.com/eventease/ticketing/pkg/logger"
	"github.com/eventease/ticketing/pkg/middleware"
	pkgredis "github.com/eventease/ticketing/pkg/redis"
	"github.com/eventease/ticketing/pkg/retry"
	"github.com/eventease/ticketing/pkg/telemetry"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: "ticketing-api",
		Development: cfg.IsDevelopment(),
	}
	if cfg.App.Debug {
		logCfg.Level = "debug"
	}
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	appLog := logger.Get()
	appLog.Info("Starting Ticketing API...")

	ctx := context.Background()

	// Initialize tracing
	_, err = telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
	})
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Telemetry init failed: %v", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	if err := metrics.Init(); err != nil {
		appLog.Warn(fmt.Sprintf("Metrics init failed: %v", err))
	}

	// Initialize database connection
	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   time.Second,
		EnableTracing:   cfg.OTel.Enabled,
	}
	db, err := database.NewPostgres(ctx, dbCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
	}
	defer db.Close()
	appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

	// Initialize Redis connection
	redisCfg := &pkgredis.Config{
		Host:          cfg.Redis.Host,
		Port:          cfg.Redis.Port,
		Password:      cfg.Redis.Password,
		DB:            cfg.Redis.DB,
		PoolSize:      cfg.Redis.PoolSize,
		MinIdleConns:  cfg.Redis.MinIdleConns,
		DialTimeout:   cfg.Redis.DialTimeout,
		ReadTimeout:   cfg.Redis.ReadTimeout,
		WriteTimeout:  cfg.Redis.WriteTimeout,
		MaxRetries:    3,
		RetryInterval: 100 * time.Millisecond,
	}
	redisClient, err := pkgredis.NewClient(ctx, redisCfg)
	if err != nil {
		appLog.Fatal(fmt.Sprintf("Redis connection failed: %v", err))
	}
	defer redisClient.Close()
	appLog.Info("Redis connected")

	// Initialize payment gateway
	var payments gateway.PaymentGateway
	if cfg.Stripe.SecretKey != "" && cfg.Stripe.WebhookSecret != "" {
		payments, err = gateway.NewStripeGateway(&gateway.StripeGatewayConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
		})
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Stripe gateway init failed: %v", err))
		}
		appLog.Info("Stripe payment gateway configured")
	} else {
		if cfg.IsProduction() {
			appLog.Fatal("Stripe credentials are required in production")
		}
		appLog.Warn("Stripe credentials missing, paid checkout is disabled")
		payments = gateway.NewDisabledGateway()
	}

	// Initialize repositories
	settleRetry := retry.DefaultConfig()
	settleRetry.MaxRetries = cfg.Ticketing.SettleMaxRetries
	inventoryRepo := repository.NewPostgresInventoryRepository(db.Pool(), settleRetry)
	ticketRepo := repository.NewPostgresTicketRepository(db.Pool())
	guestRepo := repository.NewPostgresGuestRepository(db.Pool())
	outboxRepo := repository.NewPostgresOutboxRepository(db.Pool())

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		Config:        cfg,
		DB:            db,
		Redis:         redisClient,
		InventoryRepo: inventoryRepo,
		TicketRepo:    ticketRepo,
		GuestRepo:     guestRepo,
		OutboxRepo:    outboxRepo,
		Payments:      payments,
	})

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
		gin.DisableConsoleColor()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(telemetry.TracingMiddleware(cfg.OTel.ServiceName))

	// Health endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)
	router.GET("/metrics", container.HealthHandler.Metrics)

	idempotency := middleware.Idempotency(middleware.DefaultIdempotencyConfig(redisClient.Client()))

	v1 := router.Group("/api/v1")
	{
		events := v1.Group("/events")
		{
			events.POST("", container.EventHandler.CreateEvent)
			events.GET("/:id", container.EventHandler.GetEvent)
			events.GET("/:id/tickets", container.EventHandler.ListTickets)
			events.POST("/:id/purchase", idempotency, container.PurchaseHandler.Purchase)
			events.POST("/:id/checkout", idempotency, container.PurchaseHandler.Checkout)
		}

		v1.POST("/webhooks/payment", container.WebhookHandler.HandlePayment)

		v1.POST("/scan",
			middleware.StationAuth(cfg.Station.JWTSecret),
			container.ScanHandler.Scan)

		v1.GET("/tickets/:id", container.TicketHandler.GetTicket)
		v1.GET("/users/:id/tickets", container.TicketHandler.ListUserTickets)
		v1.GET("/guests/:email", container.GuestHandler.GetProfile)

		v1.POST("/admin/stations/token", container.StationHandler.IssueToken)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// pprof sidecar on a separate port
	go func() {
		pprofAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port+1000)
		appLog.Info(fmt.Sprintf("pprof server listening on %s", pprofAddr))
		if err := http.ListenAndServe(pprofAddr, nil); err != nil {
			appLog.Error(fmt.Sprintf("pprof server error: %v", err))
		}
	}()

	go func() {
		appLog.Info(fmt.Sprintf("Ticketing API listening on %s", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Fatal(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
