/*
Package main is the entry point for the Rowboat dashboard application.

It is responsible for loading configuration, initializing the global logging system,
setting up the HTTP server, creating the session registry and notification hub,
and gracefully handling operating system interrupt signals (SIGINT, SIGTERM)
to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rowboatweb/internal/app/notify"
	"rowboatweb/internal/app/session"
	"rowboatweb/internal/configs"
	"rowboatweb/internal/handler"
	"rowboatweb/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.Environment == "development")
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("backend_url", cfg.BackendURL).
		Int("max_sessions", cfg.MaxSessions).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := &handler.AppDeps{
		Config:   cfg,
		Sessions: session.NewManager(cfg),
		Hub:      notify.NewHub(),
	}

	// Setup HTTP server and routes
	router, err := handler.Router(deps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to build router: %v\n", err)
		os.Exit(1)
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Rowboat Dashboard starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Fatal(err, "Server forced to shutdown")
	}

	deps.Hub.Shutdown()

	logx.Info("Server gracefully stopped.")
}
