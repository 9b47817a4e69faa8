package service

import (
	"context"
	"sync"
	"time"

	"beauty-kart/internal/events"
	"beauty-kart/internal/gateway"
	"beauty-kart/internal/localcart"
	"beauty-kart/internal/session"

	"github.com/rs/zerolog"
)

// Dependencies are the collaborators shared by every session's CartView.
type Dependencies struct {
	Carts     gateway.CartGateway
	Auth      gateway.AuthGateway
	Products  ProductService
	Migration MigrationService
	Orders    OrderService
}

// viewConfig wires a CartView for the session whose state lives in kv.
func (d Dependencies) viewConfig(kv session.Store, bus *events.Bus, logger zerolog.Logger) CartViewConfig {
	return CartViewConfig{
		Local:     localcart.New(kv, bus, logger),
		Session:   kv,
		Bus:       bus,
		Carts:     d.Carts,
		Auth:      d.Auth,
		Products:  d.Products,
		Migration: d.Migration,
		Orders:    d.Orders,
		Logger:    logger,
	}
}

type registryEntry struct {
	view     *CartView
	lastSeen time.Time
}

// Registry holds one CartView per session id. Views only cache session
// state, so an evicted view is rebuilt from the session store on next use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry

	store   session.Store
	deps    Dependencies
	idleTTL time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewRegistry creates a registry over the shared session store. Views unused
// for idleTTL are evicted by Sweep.
func NewRegistry(store session.Store, deps Dependencies, idleTTL time.Duration, logger zerolog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		store:   store,
		deps:    deps,
		idleTTL: idleTTL,
		now:     time.Now,
		logger:  logger.With().Str("component", "session-registry").Logger(),
	}
}

// Get returns the view of a session, building it on first use.
func (r *Registry) Get(ctx context.Context, sessionID string) *CartView {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[sessionID]; ok {
		entry.lastSeen = r.now()
		return entry.view
	}

	kv := session.Scoped(r.store, sessionID)
	bus := events.NewBus()
	logger := r.logger.With().Str("session_id", sessionID).Logger()

	view := NewCartView(ctx, r.deps.viewConfig(kv, bus, logger))

	r.entries[sessionID] = &registryEntry{view: view, lastSeen: r.now()}
	r.logger.Debug().Str("session_id", sessionID).Msg("cart view created")
	return view
}

// Len returns the number of live views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts views idle for longer than the TTL that have no event stream
// attached, and returns how many were evicted. Expired entries of a store
// implementing session.Sweeper are dropped too.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}

	if sweeper, ok := r.store.(session.Sweeper); ok {
		if removed := sweeper.Sweep(); removed > 0 {
			r.logger.Debug().Int("removed", removed).Msg("expired session entries removed")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	evicted := 0
	for id, entry := range r.entries {
		// The view's own subscription is always present; more means a live
		// event stream is attached.
		if entry.lastSeen.Before(cutoff) && entry.view.Events().Len() <= 1 {
			entry.view.Close()
			delete(r.entries, id)
			evicted++
		}
	}

	if evicted > 0 {
		r.logger.Debug().Int("evicted", evicted).Int("remaining", len(r.entries)).Msg("idle cart views evicted")
	}
	return evicted
}

// Run sweeps periodically until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTTL <= 0 {
		return
	}

	interval := r.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
