package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"beauty-kart/internal/config"
	"beauty-kart/internal/gateway"
	"beauty-kart/internal/handler"
	"beauty-kart/internal/middleware"
	"beauty-kart/internal/router"
	"beauty-kart/internal/service"
	"beauty-kart/internal/session"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// maxViewIdle bounds how long an unused cart view stays in memory. Views are
// rebuilt from the session store on the next request.
const maxViewIdle = 30 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting beauty-kart cart server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize session storage
	store, closeStore, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	defer closeStore()

	// Initialize remote API client
	client, err := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.Remote.URL,
		Timeout:     cfg.Remote.TimeoutDuration(),
		MaxFailures: uint32(cfg.Breaker.MaxFailures),
		OpenTimeout: cfg.Breaker.OpenTimeoutDuration(),
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize remote API client: %w", err)
	}

	// Initialize services
	registry := service.NewRegistry(store, service.Dependencies{
		Carts:     client,
		Auth:      client,
		Products:  service.NewProductService(client, logger),
		Migration: service.NewMigrationService(client, logger),
		Orders:    service.NewOrderService(client, logger),
	}, viewIdleTTL(cfg.Session.TTLDuration()), logger)
	go registry.Run(ctx)

	// Initialize HTTP handlers and router
	mux := router.New(router.Handlers{
		Cart:     handler.NewCartHandler(registry, logger),
		Auth:     handler.NewAuthHandler(registry, logger),
		Checkout: handler.NewCheckoutHandler(registry, logger),
		Events:   handler.NewEventsHandler(registry, 0, logger),
	}, router.Options{
		AllowedOrigin: cfg.CORS.AllowedOrigin,
		Cookie: middleware.SessionCookie{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			MaxAge: cfg.Session.TTLDuration(),
		},
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("remote_api", cfg.Remote.URL).
			Str("session_backend", cfg.Session.Backend).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Event streams only end when their request context does.
		cancel()

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newSessionStore builds the configured session backend and returns a
// function releasing it.
func newSessionStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (session.Store, func(), error) {
	ttl := cfg.Session.TTLDuration()

	if cfg.Session.Backend != "redis" {
		logger.Info().Dur("ttl", ttl).Msg("using in-memory session store")
		return session.NewMemoryStore(ttl), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := session.NewRedisStore(client, ttl)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
	}

	logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", ttl).Msg("using redis session store")
	return store, func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close redis client")
		}
	}, nil
}

func viewIdleTTL(sessionTTL time.Duration) time.Duration {
	if sessionTTL > 0 && sessionTTL < maxViewIdle {
		return sessionTTL
	}
	return maxViewIdle
}
