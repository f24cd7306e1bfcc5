package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"staff-backend/config"
	"staff-backend/controllers"
	"staff-backend/routes"
	"staff-backend/services"
)

func envSeconds(key string, fallback int) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return time.Duration(fallback) * time.Second
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return time.Duration(fallback) * time.Second
	}
	return time.Duration(value) * time.Second
}

func main() {
	// Load .env (optional)
	if err := godotenv.Load(); err != nil {
		log.Println(".env not found or couldn't load it; continuing with environment variables")
	}

	if err := config.InitLogger(os.Getenv("APP_ENV")); err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer config.SyncLogger()
	logger := config.Logger()

	shutdownTracing := config.InitTracing(context.Background(), "staff-backend")
	if shutdownTracing != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				logger.Warnw("tracing shutdown failed", "error", err)
			}
		}()
	}

	if err := config.ConnectDatabase(); err != nil {
		logger.Fatalw("database connect failed", "error", err)
	}
	db := config.DB

	// Initialize services
	events := services.NewEventBus(logger)
	defer events.Close()
	ownership := services.NewOwnershipService(db)
	escalations := services.NewEscalationService(db, events, logger)
	actions := services.NewActionService(db, ownership, escalations, events, logger)
	assignments := services.NewAssignmentService(db)
	requests := services.NewRequestService(db, ownership, escalations, events, logger,
		envSeconds("ESCALATION_DELAY_SECONDS", 120))

	// Initialize controllers
	authController := controllers.NewAuthController(db)
	requestController := controllers.NewRequestController(requests)
	actionController := controllers.NewActionController(actions)
	assignmentController := controllers.NewAssignmentController(assignments)

	router := routes.SetupRouter(db, logger, authController, requestController, actionController, assignmentController)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	addr := ":" + port

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Infow("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("listen failed", "error", err)
		}
	}()

	// escalation dispatcher: flips due pending escalations to sent
	stopDispatcher := make(chan struct{})
	go func() {
		interval := envSeconds("ESCALATION_SCAN_INTERVAL_SECONDS", 30)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopDispatcher:
				return
			case <-ticker.C:
				count, err := escalations.DispatchDue(100)
				if err != nil {
					logger.Warnw("escalation scan failed", "error", err)
					continue
				}
				if count > 0 {
					logger.Infow("escalations dispatched", "count", count)
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")
	close(stopDispatcher)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalw("forced shutdown", "error", err)
	}

	logger.Info("server stopped gracefully")
}
