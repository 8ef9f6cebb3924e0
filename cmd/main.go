/*
Package main is the entry point for the MenuPoll server.

It is responsible for loading configuration, initializing the global logging system,
connecting to PostgreSQL, starting the long-poll Hub, setting up the HTTP server,
and gracefully handling operating system interrupt signals (SIGINT, SIGTERM)
to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menupoll/internal/app/db"
	"menupoll/internal/app/poll"
	"menupoll/internal/app/storage"
	"menupoll/internal/configs"
	"menupoll/internal/handler"
	"menupoll/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logx.Init(logx.Options{Development: cfg.IsDevelopment(), Level: cfg.LogLevel}); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("poll_timeout", cfg.PollTimeout).
		Dur("session_grace_period", cfg.SessionGracePeriod).
		Bool("image_storage", cfg.StorageEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, db.PoolOptions{
		DSN:      cfg.DatabaseDSN,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		logx.Fatal(err, "Failed to initialize database")
	}
	defer pool.Close()

	images, err := storage.NewImageService(ctx, cfg)
	if err != nil {
		logx.Fatal(err, "Failed to initialize image storage")
	}

	// Initialize the long-poll Hub
	hub := poll.NewHub(cfg)

	deps := &handler.AppDeps{
		Hub:    hub,
		Config: cfg,
		Store:  db.NewStore(pool),
		Images: images,
	}

	// Setup HTTP server and routes
	router := handler.Router(ctx, deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.PollTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Pending polls are yielded once the listeners close.
	server.RegisterOnShutdown(hub.Shutdown)

	go func() {
		logx.Info(fmt.Sprintf("MenuPoll Server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	logx.Info("Server gracefully stopped.")
}
