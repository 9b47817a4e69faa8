// Package session holds per-session state: a key-value Store (the server-side
// counterpart of the browser's session storage) and the session identity.
package session

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store.Get when the key holds no value.
var ErrNotFound = errors.New("session key not found")

// Store is a key-value store for session-scoped data.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Sweeper is implemented by stores that drop expired entries only when asked.
type Sweeper interface {
	// Sweep removes expired entries and returns how many were removed.
	Sweep() int
}

// Scoped returns a Store whose keys live under the given session id.
func Scoped(store Store, sessionID string) Store {
	return &scopedStore{
		store:  store,
		prefix: fmt.Sprintf("session:%s:", sessionID),
	}
}

type scopedStore struct {
	store  Store
	prefix string
}

func (s *scopedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.store.Get(ctx, s.prefix+key)
}

func (s *scopedStore) Set(ctx context.Context, key string, value []byte) error {
	return s.store.Set(ctx, s.prefix+key, value)
}

func (s *scopedStore) Delete(ctx context.Context, key string) error {
	return s.store.Delete(ctx, s.prefix+key)
}
