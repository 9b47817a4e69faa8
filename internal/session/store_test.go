package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"beauty-kart/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisStore on it.
func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
	})

	return NewRedisStore(client, ttl), mr
}

func TestStores_RoundTrip(t *testing.T) {
	redisStore, _ := setupTestRedis(t, time.Hour)

	stores := map[string]Store{
		"memory": NewMemoryStore(time.Hour),
		"redis":  redisStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "panierLocal")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "panierLocal", []byte(`{"articles":[]}`)))

			value, err := store.Get(ctx, "panierLocal")
			require.NoError(t, err)
			assert.Equal(t, `{"articles":[]}`, string(value))

			require.NoError(t, store.Delete(ctx, "panierLocal"))
			require.NoError(t, store.Delete(ctx, "panierLocal"))

			_, err = store.Get(ctx, "panierLocal")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	store := NewMemoryStore(30 * time.Minute).(*memoryStore)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", []byte("v")))

	now = now.Add(29 * time.Minute)
	_, err := store.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	store := NewMemoryStore(time.Minute).(*memoryStore)
	store.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("session:%d:panierLocal", i), []byte("{}")))
	}
	assert.Zero(t, store.Sweep(), "nothing expired yet")

	now = now.Add(time.Hour)
	require.NoError(t, store.Set(ctx, "session:live:panierLocal", []byte("{}")))

	assert.Equal(t, 1000, store.Sweep())
	assert.Len(t, store.entries, 1)

	value, err := store.Get(ctx, "session:live:panierLocal")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(value))
}

func TestMemoryStore_SweepWithoutTTL(t *testing.T) {
	store := NewMemoryStore(0).(*memoryStore)
	require.NoError(t, store.Set(context.Background(), "k", []byte("v")))

	assert.Zero(t, store.Sweep())
	assert.Len(t, store.entries, 1)
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'x'

	stored, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(stored))
}

func TestRedisStore_SetAppliesTTL(t *testing.T) {
	store, mr := setupTestRedis(t, 15*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	assert.Equal(t, 15*time.Minute, mr.TTL("k"))

	mr.FastForward(16 * time.Minute)
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	mr.Close()

	_, err := store.Get(ctx, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, store.Ping(ctx))
}

func TestScoped_IsolatesSessions(t *testing.T) {
	ctx := context.Background()
	backing := NewMemoryStore(0)

	first := Scoped(backing, "s1")
	second := Scoped(backing, "s2")

	require.NoError(t, first.Set(ctx, "panierLocal", []byte("one")))

	_, err := second.Get(ctx, "panierLocal")
	assert.ErrorIs(t, err, ErrNotFound)

	raw, err := backing.Get(ctx, "session:s1:panierLocal")
	require.NoError(t, err)
	assert.Equal(t, "one", string(raw))
}

func TestIdentity_SaveLoadClear(t *testing.T) {
	ctx := context.Background()
	store := Scoped(NewMemoryStore(0), "s1")

	identity, err := LoadIdentity(ctx, store)
	require.NoError(t, err)
	assert.Nil(t, identity)

	saved := model.Identity{UserID: "u1", ClientID: "c1", Role: "client", AuthToken: "token"}
	require.NoError(t, SaveIdentity(ctx, store, saved))

	identity, err = LoadIdentity(ctx, store)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, saved, *identity)

	require.NoError(t, ClearIdentity(ctx, store))
	identity, err = LoadIdentity(ctx, store)
	require.NoError(t, err)
	assert.Nil(t, identity)
}

func TestLoadIdentity_Malformed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	require.NoError(t, store.Set(ctx, IdentityKey, []byte("{not json")))

	identity, err := LoadIdentity(ctx, store)
	assert.Error(t, err)
	assert.Nil(t, identity)
}
