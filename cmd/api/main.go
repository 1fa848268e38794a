package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PawTriage/internal/clinics"
	"PawTriage/internal/config"
	"PawTriage/internal/database"
	"PawTriage/internal/geminiservice"
	"PawTriage/internal/pet"
	"PawTriage/internal/server"
	"PawTriage/internal/utility"
	"github.com/rs/zerolog/log"
)

// Per-user throttle on /analyze, on top of the provider rate limit.
const (
	analyzeWindow   = time.Minute
	analyzePerUser  = 5
	shutdownTimeout = 5 * time.Second
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if err := utility.ConfigureLogger(cfg.Log.Level, cfg.Log.Format, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// 1. Database
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("could not connect to database")
	}
	defer dbService.Close()

	if err := dbService.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("could not apply database schema")
	}

	// 2. Text generation provider
	gen, err := geminiservice.NewGenerator(cfg.LLM, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("could not initialize text generation provider")
	}

	// 3. Handlers
	finder := clinics.NewFinder(cfg.Overpass, &log.Logger)
	limiter := utility.NewRateLimiter(analyzeWindow, analyzePerUser)
	pets := pet.NewHandler(dbService.Queries(), gen, finder, limiter)

	if cfg.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is not set; protected routes will reject every request")
	}

	apiServer := server.NewServer(cfg, dbService, pets)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, done)

	log.Info().Str("addr", apiServer.Addr).Str("provider", cfg.LLM.Provider).Msg("PawTriage API listening")
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server error")
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
