package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"drinklog/internal/config"
	"drinklog/internal/database"
	"drinklog/internal/live"
	"drinklog/internal/logger"
	"drinklog/internal/metrics"
	"drinklog/internal/server"
	"drinklog/internal/services"
	"drinklog/internal/validator"
)

// @title           drinklog API
// @version         1.0
// @description     drinklog records beverage orders and derives quick orders, store and item vocabularies and store rankings from them.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig(appConfig)
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register(appConfig.IceLevels, appConfig.SugarLevels)

	// Live updates: the local hub serves this instance's streams; with redis
	// configured every instance relays changes into its own hub.
	hub := live.NewHub()
	var publisher live.Publisher = hub
	if appConfig.RedisURL != "" {
		broker, err := live.NewRedisBroker(appConfig.RedisURL, appConfig.RedisChannel, hub)
		if err != nil {
			return fmt.Errorf("failed to configure redis: %w", err)
		}
		defer broker.Close()
		if err := broker.Ping(ctx); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}
		go func() {
			if err := broker.Run(ctx); err != nil {
				log.Errorw("live event relay stopped", "error", err)
			}
		}()
		publisher = broker
	}

	appMetrics := metrics.New(hub)

	// Initialize services
	db := dbManager.DB()
	router := server.NewRouter(server.Deps{
		Config:       appConfig,
		UserService:  services.NewUserService(db),
		DrinkService: services.NewDrinkService(db, hub, publisher, appMetrics),
		AuditService: services.NewAuditService(db),
		Metrics:      appMetrics,
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Open streams end when a shutdown signal arrives.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting drinklog server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
