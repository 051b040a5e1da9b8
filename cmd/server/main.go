// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/casaleverde/bookingengine/internal/api/availability"
	"github.com/casaleverde/bookingengine/internal/api/quotes"
	"github.com/casaleverde/bookingengine/internal/config"
	"github.com/casaleverde/bookingengine/internal/scheduler"
	"github.com/casaleverde/bookingengine/internal/snapcache"
	"github.com/casaleverde/bookingengine/internal/upstream"
)

const defaultShutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	cfg, err := config.Load(getEnv("CONFIG_PATH", "config/config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Booking.Timezone).Msg("Failed to load booking timezone")
	}

	store, cleanup, err := newCacheStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create snapshot cache")
	}
	defer cleanup()

	client := upstream.New(upstream.Config{
		AvailabilityURL: cfg.Upstream.AvailabilityURL,
		CatalogURL:      cfg.Upstream.CatalogURL,
		VoucherURL:      cfg.Upstream.VoucherURL,
		Timeout:         cfg.Upstream.Timeout,
		APIKey:          cfg.Upstream.APIKey,
	})

	availability.InitHandlers(availability.Deps{
		Fetcher:           client,
		Cache:             store,
		Location:          loc,
		DefaultMinStay:    cfg.Booking.DefaultMinStay,
		DefaultTaxPercent: cfg.Booking.DefaultTaxPercent,
	})
	quotes.InitHandlers(quotes.Deps{
		Catalog:  client,
		Vouchers: client,
	})

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if err := scheduler.RegisterCacheSweep(store); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache sweep")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown failed")
		}
	}()

	server := newServer(cfg)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Handle shutdown
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
}

func newCacheStore(cfg *config.Config) (snapcache.Store, func(), error) {
	switch cfg.Cache.Driver {
	case "sqlite":
		store, err := snapcache.NewSQLiteStore(cfg.Cache.Filename, cfg.Cache.TTL, nil)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("Cache close failed")
			}
		}, nil
	default:
		return snapcache.NewMemoryStore(cfg.Cache.TTL, nil), func() {}, nil
	}
}
