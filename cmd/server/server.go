// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/casaleverde/bookingengine/internal/api"
	"github.com/casaleverde/bookingengine/internal/api/availability"
	"github.com/casaleverde/bookingengine/internal/api/quotes"
	"github.com/casaleverde/bookingengine/internal/config"
)

func newServer(cfg *config.Config) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	// Register routes
	registerRoutes(router)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux) {
	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Availability routes
	mux.HandleFunc("/api/v1/availability/calendar", availability.HandleCalendar)
	mux.HandleFunc("/api/v1/availability/validate", availability.HandleValidate)

	// Quote routes
	mux.HandleFunc("/api/v1/quotes", quotes.HandleCreateQuote)
}
