package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleetgrid/service-zoning/internal/application"
	"github.com/fleetgrid/service-zoning/internal/common/database"
	"github.com/fleetgrid/service-zoning/internal/common/health"
	"github.com/fleetgrid/service-zoning/internal/common/kafka"
	"github.com/fleetgrid/service-zoning/internal/common/logger"
	"github.com/fleetgrid/service-zoning/internal/common/middleware"
	"github.com/fleetgrid/service-zoning/internal/config"
	zoningEvents "github.com/fleetgrid/service-zoning/internal/events"
	"github.com/fleetgrid/service-zoning/internal/handler"
	"github.com/fleetgrid/service-zoning/internal/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-zoning")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-zoning",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&repository.ZonePlanModel{}, &repository.FacilityModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		dbURL := dbConfig.DatabaseURL()
		if err := database.RunMigrations(dbURL, "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	planRepo := repository.NewGormZonePlanRepository(db)
	facilityRepo := repository.NewGormFacilityRepository(db)

	// Initialize application services
	facilityService := application.NewFacilityService(facilityRepo, kafkaProducer, log)
	zoneService := application.NewZoneService(planRepo, facilityRepo, kafkaProducer, log)

	// Initialize and start facility event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "zoning-service"
	facilityConsumer := zoningEvents.NewFacilityEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		facilityService,
		log,
	)
	defer func() { _ = facilityConsumer.Close() }()

	go func() {
		log.Info("starting facility event consumer")
		if err := facilityConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("facility event consumer error", zap.Error(err))
		}
	}()

	// Initialize HTTP handlers
	zoneHandler := handler.NewZoneHandler(zoneService)
	facilityHandler := handler.NewFacilityHandler(facilityService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, "service-zoning")
	healthHandler.RegisterRoutes(router)

	// Register routes
	zoneHandler.RegisterRoutes(&router.RouterGroup)
	facilityHandler.RegisterRoutes(&router.RouterGroup)

	// Register admin handler routes
	adminZoneHandler := handler.NewAdminZoneHandler(zoneService)
	adminZoneHandler.RegisterRoutes(&router.RouterGroup)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-zoning...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-zoning stopped")
}
