package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/rpattn/crmimport/internal/config"
	"github.com/rpattn/crmimport/internal/connector"
	"github.com/rpattn/crmimport/internal/db"
	"github.com/rpattn/crmimport/internal/dedup"
	"github.com/rpattn/crmimport/internal/middleware"
	"github.com/rpattn/crmimport/internal/orchestrator"
	"github.com/rpattn/crmimport/internal/repository"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, conn.Pool, "./migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create repositories
	sessionRepo := repository.NewImportSessionRepository(conn.Pool)
	rowRepo := repository.NewImportRowRepository(conn.Pool)
	mappingRepo := repository.NewImportMappingRepository(conn.Pool)
	clientRepo := repository.NewClientRepository(conn)
	auditRepo := repository.NewImportAuditLogRepository(conn.Pool)

	// Create services
	dedupService := dedup.NewService(clientRepo, logger)
	connectorService := connector.NewService(logger)
	importService := orchestrator.NewService(
		sessionRepo,
		rowRepo,
		mappingRepo,
		clientRepo,
		auditRepo,
		dedupService,
		connectorService,
		logger,
		orchestrator.Config{UploadDir: cfg.UploadDir, Retention: cfg.Retention},
	)

	// Purge expired sessions in the background
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := importService.PurgeExpired(ctx); err != nil {
					logger.WithError(err).Warn("failed to purge expired sessions")
				}
			}
		}
	}()

	mux := http.NewServeMux()
	orchestrator.NewHandler(importService, connectorService, logger).Register(mux)

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := corsHandler.Handler(
		middleware.LoggingMiddleware(logger)(
			middleware.ScopeMiddleware(mux),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting import API server on %s", cfg.ListenAddr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
