// Package events provides the "cart changed" signal shared by the cart
// components of one session.
package events

import (
	"context"
	"slices"
	"sync"
)

// Listener reacts to a cart change. The signal carries no payload: listeners
// re-read whatever state they display.
type Listener func(ctx context.Context)

// Bus is a publisher-subscriber channel for the cart-changed signal.
// A Bus is passed by reference to the components that need it; there is no
// package-level instance.
type Bus struct {
	mu        sync.RWMutex
	listeners map[uint64]Listener
	nextID    uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[uint64]Listener),
	}
}

// Subscribe registers a listener and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus) Subscribe(listener Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = listener
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Publish notifies every listener synchronously, in subscription order.
func (b *Bus) Publish(ctx context.Context) {
	b.mu.RLock()
	ids := make([]uint64, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, b.listeners[id])
	}
	b.mu.RUnlock()

	for _, listener := range listeners {
		listener(ctx)
	}
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
