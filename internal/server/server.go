/*
Package server implements the application's network transport layer.
It initializes the HTTP server, configures timeouts, and wires the
triage handlers to their routes.
*/
package server

import (
	"fmt"
	"net/http"
	"time"

	"PawTriage/internal/config"
	"PawTriage/internal/pet"
)

// healthChecker is the part of database.Service the server reports on.
type healthChecker interface {
	Health() map[string]string
}

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// db reports connection pool health.
	db healthChecker

	// pets serves the triage, history and clinic endpoints.
	pets *pet.Handler

	// jwtSecret verifies bearer tokens on protected routes.
	jwtSecret string
}

// NewServer returns a configured *http.Server with production network timeouts.
func NewServer(cfg config.Config, db healthChecker, pets *pet.Handler) *http.Server {
	port := cfg.Port
	if port == 0 {
		port = 8080
	}

	newApp := &Server{
		port:      port,
		db:        db,
		pets:      pets,
		jwtSecret: cfg.Auth.JWTSecret,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", newApp.port),
		Handler:      newApp.RegisterRoutes(), // Injected from routes.go
		IdleTimeout:  time.Minute,             // Time to wait for the next request on keep-alive connections.
		ReadTimeout:  10 * time.Second,        // Maximum duration for reading the entire request.
		WriteTimeout: 2 * time.Minute,         // Analyses can take several upstream retries.
	}

	return server
}
