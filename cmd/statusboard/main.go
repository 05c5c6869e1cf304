package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"

	"github.com/statusboardhq/statusboard/internal/collector"
	"github.com/statusboardhq/statusboard/internal/config"
	"github.com/statusboardhq/statusboard/internal/database"
	"github.com/statusboardhq/statusboard/internal/handlers"
	"github.com/statusboardhq/statusboard/internal/jobs"
	"github.com/statusboardhq/statusboard/internal/middleware"
	"github.com/statusboardhq/statusboard/internal/notify"
	"github.com/statusboardhq/statusboard/internal/rss"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting statusboard...")

	if !cfg.Filter.IsZero() {
		log.Printf("Visibility filter active (loaded from %s)", cfg.FilterPath)
	}

	// Admin auth is optional: without a password the auth layer is not
	// installed and every endpoint is open, for deployments that put
	// their own access control in front
	authEnabled := cfg.AdminPassword != ""
	var passwordHash string
	if authEnabled {
		passwordHash, err = middleware.HashPassword(cfg.AdminPassword)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		log.Printf("JWT authentication enabled for user: %s", cfg.AdminUsername)
	} else {
		log.Printf("ADMIN_PASSWORD not set, authentication is disabled and admin endpoints are unauthenticated")
	}

	jwtAuthMiddleware := middleware.NewJWTAuthMiddleware(middleware.JWTAuthConfig{
		Enabled:           true,
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: passwordHash,
		JWTSecret:         cfg.JWTSecret,
		JWTExpiryHours:    cfg.JWTExpiryHours,
		SkipPaths: []string{
			"/health",
			"/auth/login",
			"/rss*",
			"GET /api/status*",
			"GET /api/hosts",
			"GET /api/services",
			"GET /api/program",
			"GET /api/incidents*",
			"POST /api/incidents*",
		},
	})
	if !authEnabled {
		jwtAuthMiddleware = middleware.NewJWTAuthMiddleware(middleware.JWTAuthConfig{Enabled: false})
	}

	// Initialize database connection
	if err := database.Connect(cfg.DatabaseURL, logger.Warn); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Printf("Database connection established")

	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Ingestion pipeline: file source -> executor -> supervisor
	source := collector.NewFileSource(cfg.StatusFilePath, cfg.ReadTimeout)
	executor := collector.NewPollExecutor(database.GetDB(), source, cfg.Filter, cfg.StalenessThreshold)
	supervisor := collector.NewSupervisor(executor, cfg.PollInterval, cfg.MaxPollFailures)

	if cfg.SlackToken != "" {
		executor.SetNotifier(notify.NewSlackNotifier(cfg.SlackToken, cfg.SlackChannel))
		log.Printf("Slack notifications enabled for channel %s", cfg.SlackChannel)
	}

	// Live status push over WebSocket
	wsHub := handlers.NewStatusWSHandler(supervisor)
	executor.SetObserver(wsHub.BroadcastOutcome)

	if err := supervisor.Start(); err != nil {
		log.Fatalf("Failed to start poll supervisor: %v", err)
	}
	log.Printf("Polling %s every %s", cfg.StatusFilePath, cfg.PollInterval)

	// Retention job prunes closed incidents past the retention window
	retentionStop := make(chan struct{})
	retention := jobs.NewRetentionJob(database.GetDB(), cfg.RetentionDays)
	go retention.Start(cfg.RetentionInterval, retentionStop)

	feedGenerator := rss.NewGenerator("Statusboard", cfg.BaseURL)

	httpHandler := handlers.NewHTTPHandler(supervisor, executor)
	apiHandler := handlers.NewAPIHandler(supervisor, executor, wsHub)
	authHandler := handlers.NewAuthHandler(jwtAuthMiddleware)
	feedHandler := handlers.NewFeedHandler(feedGenerator)

	mux := http.NewServeMux()
	httpHandler.SetupRoutes(mux)
	apiHandler.SetupRoutes(mux)
	authHandler.SetupRoutes(mux)
	feedHandler.SetupRoutes(mux)

	// Request ID, then CORS, then JWT authentication
	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORSAllowedOrigins)
	handler := middleware.RequestIDMiddleware(corsMiddleware.Wrap(jwtAuthMiddleware.Wrap(mux)))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: handler,
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	log.Printf("Status API: http://localhost:%d/api/status", cfg.HTTPPort)
	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)
	log.Printf("RSS feed: http://localhost:%d/rss", cfg.HTTPPort)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal, cleaning up...")

	supervisor.Stop()
	close(retentionStop)
	wsHub.Close()

	if err := httpServer.Close(); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}
	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Shutdown complete")
}
