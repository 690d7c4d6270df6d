package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eventease/ticketing/internal/gateway"
	"github.com/eventease/ticketing/internal/metrics"
	"github.com/eventease/ticketing/internal/repository"
	"github.com/eventease/ticketing/internal/service"
	"github.com/eventease/ticketing/internal/worker"
	"github.com/eventease/ticketing/pkg/config"
	"github.com/eventease/ticketing/pkg/database"
	"github.com/eventease/ticketing/pkg/kafka"
	"github.com/eventease/ticketing/pkg/logger"
	"github.com/eventease/ticketing/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCfg := &logger.Config{
		Level:       "info",
		ServiceName: "outbox-worker",
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
	appLog.Info("Starting Outbox Worker...")

	ctx := context.Background()

	_, err = telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    "outbox-worker",
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

	dbCfg := &database.PostgresConfig{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        10,
		MinConns:        2,
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
	appLog.Info("Database connected")

	// Kafka is optional: without a broker, integration events are
	// dropped by the no-op publisher but emails still go out.
	var publisher service.EventPublisher
	producer, err := kafka.NewProducer(ctx, &kafka.ProducerConfig{
		Brokers:  cfg.Kafka.Brokers,
		ClientID: cfg.Kafka.ClientID,
	})
	if err != nil {
		appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		publisher = service.NewNoOpEventPublisher()
	} else {
		defer producer.Close()
		publisher = service.NewKafkaEventPublisher(producer)
		appLog.Info("Kafka producer connected")
	}

	outboxRepo := repository.NewPostgresOutboxRepository(db.Pool())
	emailSender := gateway.NewLogEmailSender()

	w := worker.NewOutboxWorker(outboxRepo, publisher, emailSender, worker.DefaultOutboxWorkerConfig())
	if err := w.Start(ctx); err != nil {
		appLog.Fatal(fmt.Sprintf("Failed to start outbox worker: %v", err))
	}
	appLog.Info("Outbox worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down outbox worker...")

	w.Stop()
	appLog.Info("Outbox worker exited gracefully")
}
