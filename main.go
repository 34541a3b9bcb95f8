package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"grocery/internal/app"
	"grocery/internal/config"
	"grocery/internal/database"
	"grocery/internal/logger"
	"grocery/internal/services"
	"grocery/pkg/khalti"
	"grocery/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer zapLogger.Sync()

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := app.Deps{Config: cfg, Logger: logger}

	// --- Storage ---
	if cfg.DatabaseDriver == database.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		deps.Repos = app.MemoryRepositories()
	} else {
		db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		defer func() {
			if err := database.Close(db); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}()
		deps.Repos = app.GORMRepositories(db)
		deps.DatabaseCheck = func(ctx context.Context) error {
			return database.Ping(ctx, db)
		}
		logger.Info("database ready", zap.String("driver", cfg.DatabaseDriver))
	}

	// --- Payment gateway ---
	gateway, err := khalti.NewClient(cfg.GatewayBaseURL, cfg.GatewaySecretKey, cfg.GatewayTimeout)
	if err != nil {
		return err
	}
	deps.Gateway = gateway

	// --- Event bus ---
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			return err
		}
		defer mqClient.Close()
		deps.Publisher = mqClient
		deps.BusConnected = mqClient.Connected

		if err := mqClient.ConsumeOrderEvents(logOrderEvent(logger)); err != nil {
			logger.Warn("failed to start order event consumer", zap.Error(err))
		}
	} else {
		logger.Info("RABBITMQ_URL not set, order events are disabled")
	}

	application := app.New(deps)

	// --- Bootstrap data ---
	if cfg.SeedCatalog {
		if err := database.SeedProducts(ctx, deps.Repos.Products, logger); err != nil {
			return err
		}
	}
	if cfg.AdminConfigured() {
		err := application.Auth.EnsureAdmin(ctx, services.RegisterRequest{
			Username: cfg.AdminUsername,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		})
		if err != nil {
			return err
		}
	}

	// --- Serve ---
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", cfg.AppPort))
		serverErr <- application.Fiber.Listen(cfg.AppPort)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := application.Fiber.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server gracefully stopped")
	return nil
}

// logOrderEvent is the in-process consumer of the order queue.
func logOrderEvent(logger *zap.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		logger.Info("order event received",
			zap.String("routing_key", msg.RoutingKey),
			zap.ByteString("body", msg.Body))
		return nil
	}
}
