package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	httpapi "lendhub-backend/internal/api/http"
	"lendhub-backend/internal/calendar"
	"lendhub-backend/internal/config"
	"lendhub-backend/internal/logger"
	"lendhub-backend/internal/repository/postgres"
	"lendhub-backend/internal/security"
	"lendhub-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrationsDir := flag.String("migrations", "migrations", "Path to migration files")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting LendHub backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if err := goose.Up(db, *migrationsDir); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations applied")

	store := postgres.NewStore(db)

	cal, err := calendar.New(cfg.Calendar.HandoutWeekday, cfg.Calendar.ReturnWeekday, cfg.Calendar.TurnaroundDays)
	if err != nil {
		logger.Error("Invalid calendar configuration", "error", err)
		log.Fatalf("Invalid calendar configuration: %v", err)
	}

	tokenManager := security.NewTokenManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Minute,
	)

	emailSvc := service.NewEmailService(cfg.Email.APIKey, cfg.Email.From, cfg.Email.FromName)

	authSvc := service.NewAuthService(store, tokenManager)
	catalogSvc := service.NewCatalogService(store)
	availabilitySvc := service.NewAvailabilityService(store, cal, cfg.Calendar.DefaultMaxDurationDays)
	reservationSvc := service.NewReservationService(store, cal, cfg.Calendar.DefaultMaxDurationDays, emailSvc, nil)
	rentalSvc := service.NewRentalService(store, cal, service.ExtensionRules{
		OrdinaryLimitDays: cfg.Calendar.OrdinaryExtensionLimit,
		StaffLimitDays:    cfg.Calendar.StaffExtensionLimit,
		StepDays:          cfg.Calendar.ExtensionStepDays,
	}, emailSvc, nil)

	handlers := httpapi.NewHandlers(authSvc, catalogSvc, availabilitySvc, reservationSvc, rentalSvc)
	router := httpapi.NewRouter(handlers, tokenManager)

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
