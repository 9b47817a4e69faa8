package integration

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"beauty-kart/internal/gateway"
	"beauty-kart/internal/gateway/gatewaytest"
	"beauty-kart/internal/handler"
	"beauty-kart/internal/middleware"
	"beauty-kart/internal/router"
	"beauty-kart/internal/service"
	"beauty-kart/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const cookieName = "bk_session"

// SetupRedis starts a Redis container and returns a session store backed by it.
func SetupRedis(t *testing.T) *session.RedisStore {
	t.Helper()

	ctx := context.Background()
	redisC, err := testcontainers.Run(
		ctx, "redis:7-alpine",
		testcontainers.WithExposedPorts("6379/tcp"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("6379/tcp"),
			wait.ForLog("Ready to accept connections").WithStartupTimeout(30*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, redisC)
	require.NoError(t, err, "failed to start redis container")

	endpoint, err := redisC.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() {
		client.Close()
	})

	store := session.NewRedisStore(client, time.Hour)
	require.NoError(t, store.Ping(ctx))
	return store
}

// NewAPI serves the full HTTP stack over store, talking to remote. Each call
// builds a fresh registry, as a restarted process would.
func NewAPI(t *testing.T, store session.Store, remote *gatewaytest.Server) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	client, err := gateway.NewClient(gateway.Config{
		BaseURL: remote.APIURL(),
		Timeout: 5 * time.Second,
	}, logger)
	require.NoError(t, err)

	registry := service.NewRegistry(store, service.Dependencies{
		Carts:     client,
		Auth:      client,
		Products:  service.NewProductService(client, logger),
		Migration: service.NewMigrationService(client, logger),
		Orders:    service.NewOrderService(client, logger),
	}, time.Minute, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go registry.Run(ctx)

	api := httptest.NewServer(router.New(router.Handlers{
		Cart:     handler.NewCartHandler(registry, logger),
		Auth:     handler.NewAuthHandler(registry, logger),
		Checkout: handler.NewCheckoutHandler(registry, logger),
		Events:   handler.NewEventsHandler(registry, 0, logger),
	}, router.Options{
		AllowedOrigin: "*",
		Cookie:        middleware.SessionCookie{Name: cookieName},
	}, logger))
	t.Cleanup(api.Close)
	return api
}
