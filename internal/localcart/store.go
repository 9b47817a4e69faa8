// Package localcart implements the anonymous visitor's cart, persisted in the
// session store under a single key.
package localcart

import (
	"context"
	"errors"

	"beauty-kart/internal/events"
	"beauty-kart/internal/model"
	"beauty-kart/internal/session"

	"github.com/rs/zerolog"
)

// StorageKey is the session key holding the JSON-encoded LocalCart.
const StorageKey = "panierLocal"

// Store owns the LocalCart of one session. Every operation reads the
// persisted cart, applies the change, recomputes the total and writes it
// back. Storage failures are logged and never returned to the caller.
//
// Store is not safe for concurrent mutation; callers serialize access.
type Store struct {
	kv     session.Store
	bus    *events.Bus
	logger zerolog.Logger
}

// New creates a Store over the given session store. bus may be nil.
func New(kv session.Store, bus *events.Bus, logger zerolog.Logger) *Store {
	return &Store{
		kv:     kv,
		bus:    bus,
		logger: logger.With().Str("component", "local-cart").Logger(),
	}
}

// Get returns the current cart. Missing, unreadable or malformed data yields
// an empty cart.
func (s *Store) Get(ctx context.Context) model.LocalCart {
	data, err := s.kv.Get(ctx, StorageKey)
	if errors.Is(err, session.ErrNotFound) {
		return model.EmptyLocalCart()
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read local cart, using empty cart")
		return model.EmptyLocalCart()
	}

	cart, err := decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Msg("discarding malformed local cart")
		return model.EmptyLocalCart()
	}
	return cart
}

// AddItem adds quantity units of product. An existing line for the product
// is incremented; otherwise a line is appended with the product's name,
// price and image as they are now.
func (s *Store) AddItem(ctx context.Context, product model.Product, quantity int) model.LocalCart {
	if product.ID == "" || quantity < 1 {
		s.logger.Debug().
			Str("product_id", product.ID).
			Int("quantity", quantity).
			Msg("ignoring invalid add")
		return s.Get(ctx)
	}

	cart := s.Get(ctx)
	if i := cart.IndexOf(product.ID); i >= 0 {
		cart.Lines[i].Quantity += quantity
	} else {
		cart.Lines = append(cart.Lines, model.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Image:     product.Image,
			Quantity:  quantity,
		})
	}

	return s.save(ctx, cart)
}

// Add adds a single unit of product.
func (s *Store) Add(ctx context.Context, product model.Product) model.LocalCart {
	return s.AddItem(ctx, product, 1)
}

// SetQuantity overwrites the quantity of a line. A quantity of zero or less
// removes the line. Unknown products are ignored.
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int) model.LocalCart {
	cart := s.Get(ctx)
	i := cart.IndexOf(productID)
	if i < 0 {
		return cart
	}

	if quantity <= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	} else {
		cart.Lines[i].Quantity = quantity
	}

	return s.save(ctx, cart)
}

// RemoveItem removes the line for productID if present.
func (s *Store) RemoveItem(ctx context.Context, productID string) model.LocalCart {
	cart := s.Get(ctx)
	i := cart.IndexOf(productID)
	if i < 0 {
		return cart
	}

	cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	return s.save(ctx, cart)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) model.LocalCart {
	return s.save(ctx, model.EmptyLocalCart())
}

// ItemCount returns the total number of units in the cart.
func (s *Store) ItemCount(ctx context.Context) int {
	return s.Get(ctx).ItemCount()
}

func (s *Store) save(ctx context.Context, cart model.LocalCart) model.LocalCart {
	cart.Recompute()

	data, err := encode(cart)
	if err == nil {
		err = s.kv.Set(ctx, StorageKey, data)
	}
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("line_count", len(cart.Lines)).
			Msg("failed to persist local cart")
	}

	if s.bus != nil {
		s.bus.Publish(ctx)
	}
	return cart
}
