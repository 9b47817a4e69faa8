package service

import (
	"context"
	"testing"
	"time"

	"beauty-kart/internal/session"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, idleTTL time.Duration) (*Registry, *viewFixture, *time.Time) {
	t.Helper()

	f := newViewFixture(t)
	registry := NewRegistry(session.NewMemoryStore(0), f.deps, idleTTL, zerolog.Nop())

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return now }
	return registry, f, &now
}

func TestRegistry_GetReusesView(t *testing.T) {
	registry, _, _ := newTestRegistry(t, time.Minute)
	ctx := context.Background()

	first := registry.Get(ctx, "session-a")
	again := registry.Get(ctx, "session-a")
	other := registry.Get(ctx, "session-b")

	assert.Same(t, first, again)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, registry.Len())
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	registry, f, _ := newTestRegistry(t, time.Minute)
	ctx := context.Background()

	_, err := registry.Get(ctx, "session-a").AddItem(ctx, f.serum, 2)
	require.NoError(t, err)

	view, err := registry.Get(ctx, "session-b").Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	view, err = registry.Get(ctx, "session-a").Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)
}

func TestRegistry_SweepEvictsIdleViews(t *testing.T) {
	registry, f, now := newTestRegistry(t, 10*time.Minute)
	ctx := context.Background()

	idle := registry.Get(ctx, "idle")
	_, err := idle.AddItem(ctx, f.serum, 1)
	require.NoError(t, err)
	registry.Get(ctx, "busy")

	*now = now.Add(8 * time.Minute)
	registry.Get(ctx, "busy")
	assert.Zero(t, registry.Sweep())

	*now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, registry.Sweep())
	assert.Equal(t, 1, registry.Len())

	// The evicted session is rebuilt from the session store.
	rebuilt := registry.Get(ctx, "idle")
	assert.NotSame(t, idle, rebuilt)
	view, err := rebuilt.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, view.ItemCount)
}

type sweepingStore struct {
	session.Store
	sweeps int
}

func (s *sweepingStore) Sweep() int {
	s.sweeps++
	return 0
}

func TestRegistry_SweepReleasesExpiredSessionEntries(t *testing.T) {
	f := newViewFixture(t)
	store := &sweepingStore{Store: session.NewMemoryStore(time.Minute)}
	registry := NewRegistry(store, f.deps, time.Minute, zerolog.Nop())

	registry.Get(context.Background(), "session-a")
	assert.Zero(t, registry.Sweep())
	assert.Equal(t, 1, store.sweeps)

	registry.Sweep()
	assert.Equal(t, 2, store.sweeps)
}

func TestRegistry_SweepKeepsStreamedViews(t *testing.T) {
	registry, _, now := newTestRegistry(t, time.Minute)
	ctx := context.Background()

	view := registry.Get(ctx, "streaming")
	unsubscribe := view.Events().Subscribe(func(context.Context) {})

	*now = now.Add(time.Hour)
	assert.Zero(t, registry.Sweep())

	unsubscribe()
	assert.Equal(t, 1, registry.Sweep())
	assert.Zero(t, registry.Len())
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	registry, _, _ := newTestRegistry(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		registry.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRegistry_NoTTLNeverEvicts(t *testing.T) {
	registry, _, now := newTestRegistry(t, 0)
	ctx := context.Background()

	registry.Get(ctx, "session-a")
	*now = now.Add(24 * time.Hour)

	assert.Zero(t, registry.Sweep())
	assert.Equal(t, 1, registry.Len())

	// Run returns at once when eviction is disabled.
	registry.Run(ctx)
}
