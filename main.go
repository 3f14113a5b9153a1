package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/practicedesk/secretary/environments"
	"github.com/practicedesk/secretary/handlers"
	"github.com/practicedesk/secretary/internal/middlewares"
	"github.com/practicedesk/secretary/internal/repository"
	"github.com/practicedesk/secretary/internal/scheduler"
	"github.com/practicedesk/secretary/internal/service"
	"github.com/practicedesk/secretary/pkg/broker"
	"github.com/practicedesk/secretary/pkg/database"
	"github.com/practicedesk/secretary/pkg/gateway"
	"github.com/practicedesk/secretary/pkg/logger"
	"github.com/practicedesk/secretary/pkg/redis"
	"github.com/practicedesk/secretary/pkg/validator"
	"github.com/practicedesk/secretary/routes"

	_ "github.com/practicedesk/secretary/docs" // swagger docs
)

// @title Secretary API
// @version 1.0
// @description WhatsApp gateway relay and appointment book for a solo practice

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @schemes http https
func main() {
	logger.Init()
	defer logger.Sync()

	// Load config
	cfg := environments.Load()

	if cfg.Auth.SchedulerAPIKey == "" {
		logger.Warnf("SCHEDULER_API_KEY is not set; scheduler routes will answer 500")
	}

	logger.Infof("Starting Secretary...")

	sender, gwCfg := newGatewaySender(cfg.Gateway)

	catalog := gateway.BuiltinCatalog()
	if gwCfg.VariantsFile != "" {
		loaded, err := gateway.LoadCatalog(gwCfg.VariantsFile)
		if err != nil {
			logger.Fatalf("Failed to load gateway variants: %v", err)
		}
		catalog = loaded
	}

	variant, err := gateway.ResolveVariant(catalog, gwCfg.Variant)
	if err != nil {
		logger.Fatalf("Invalid GATEWAY_VARIANT %q: %v", gwCfg.Variant, err)
	}
	logger.Infof("Gateway request variant: %s", variant.Label())

	relay := service.NewMessageRelay(sender, variant, gwCfg.CountryCode, cfg.Relay)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init redis (optional)
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = redis.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Warnf("Redis not available, inbound dedup disabled: %v", err)
			redisClient = nil
		} else {
			relay.WithGuard(redisClient)
		}
	}

	// Init broker (optional)
	var publisher *broker.Publisher
	if cfg.Broker.URL != "" {
		publisher, err = broker.NewPublisher(ctx, cfg.Broker)
		if err != nil {
			logger.Warnf("Broker not available, inbound messages will only be logged: %v", err)
			publisher = nil
		} else {
			relay.WithForwarder(publisher)
		}
	}

	db, stores := openStorage(cfg)

	// Initialize services
	messageService := service.NewMessageService(stores.Messages, relay)
	contactService := service.NewContactService(stores.Contacts, gwCfg.CountryCode)
	appointmentService := service.NewAppointmentService(stores.Appointments, messageService, gwCfg.CountryCode, cfg.Reminder)

	// Initialize scheduler
	sched := scheduler.NewScheduler(appointmentService, cfg.Reminder.Interval, cfg.Alert)

	// Initialize handlers
	h := routes.Handlers{
		Health:      handlers.NewHealthHandler(db, optionalPinger(redisClient), optionalBroker(publisher), cfg.Gateway),
		Message:     handlers.NewMessageHandler(messageService),
		Appointment: handlers.NewAppointmentHandler(appointmentService),
		Contact:     handlers.NewContactHandler(contactService),
		Gateway:     handlers.NewGatewayHandler(relay),
		Scheduler:   handlers.NewSchedulerHandler(sched, ctx, cfg),
	}

	if cfg.Reminder.Enabled {
		logger.Infof("Auto-starting reminder scheduler...")
		if err := sched.Start(ctx); err != nil {
			logger.Warnf("Failed to auto-start scheduler: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			middlewares.APIKeyHeader,
		},
	}))

	// Setup routes
	routes.RegisterRoutes(e, h, cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Cancel context to signal all goroutines to stop
	cancel()

	// Stop scheduler first (with timeout)
	if sched.IsRunning() {
		logger.Infof("Stopping scheduler...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- sched.Stop()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Errorf("Error stopping scheduler: %v", err)
			} else {
				logger.Infof("Scheduler stopped successfully")
			}
		case <-stopCtx.Done():
			logger.Warnf("Scheduler stop timeout, forcing shutdown")
		}
	}

	// Shutdown HTTP server (with timeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	if publisher != nil {
		logger.Infof("Closing broker connection...")
		if err := publisher.Close(); err != nil {
			logger.Errorf("Error closing broker: %v", err)
		}
	}

	if db != nil {
		logger.Infof("Closing database connection...")
		if err := db.Close(); err != nil {
			logger.Errorf("Error closing database: %v", err)
		}
	}

	if redisClient != nil {
		logger.Infof("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Redis: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}

// newGatewaySender fails fast on a misconfigured live gateway. Secrets are only ever logged masked.
func newGatewaySender(cfg environments.GatewayConfig) (gateway.Sender, environments.GatewayConfig) {
	if cfg.Mode == environments.GatewayModeStub {
		logger.Warnf("GATEWAY_MODE=stub: messages are logged, never sent")
		if cfg.Variant == "" {
			cfg.Variant = "token-path/client-token/phone-message"
		}
		return gateway.NewStubClient(), cfg
	}

	resolved, err := cfg.Resolve()
	if err != nil {
		logger.Fatalf("Gateway configuration error: %v", err)
	}

	if resolved.Diagnostics {
		logger.Infof(
			"Gateway diagnostics: base=%s instance=%s token=%s clientToken=%s timeout=%v retries=%d",
			environments.MaskedURL(resolved.BaseURL, resolved.Token),
			resolved.InstanceID,
			environments.Masked(resolved.Token),
			environments.Masked(resolved.ClientToken),
			resolved.Timeout,
			resolved.RetryCount,
		)
	}

	return gateway.NewClient(resolved), resolved
}

func openStorage(cfg *environments.Config) (*sqlx.DB, repository.Stores) {
	switch cfg.Storage.Driver {
	case "mysql":
		db, err := database.NewMySQLDB(cfg.Database)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}

		if err := database.RunMigrations(db); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}

		return db, repository.NewMySQLStores(db)
	case "memory", "":
		logger.Infof("Using in-memory storage; data is lost on restart")
		return nil, repository.NewMemoryStores()
	default:
		logger.Fatalf("Unknown STORAGE_DRIVER %q (expected memory or mysql)", cfg.Storage.Driver)
		return nil, repository.Stores{}
	}
}

// The health handler checks for nil interfaces; a typed nil pointer would not compare equal.
func optionalPinger(c *redis.Client) interface{ Ping(context.Context) error } {
	if c == nil {
		return nil
	}
	return c
}

func optionalBroker(p *broker.Publisher) interface{ Healthy() bool } {
	if p == nil {
		return nil
	}
	return p
}
