package service

import (
	"context"

	"beauty-kart/internal/model"
)

// LocalCartStore is the anonymous cart of one session.
type LocalCartStore interface {
	// Get returns the current cart, empty when nothing valid is persisted.
	Get(ctx context.Context) model.LocalCart

	// AddItem adds quantity units of product.
	AddItem(ctx context.Context, product model.Product, quantity int) model.LocalCart

	// SetQuantity overwrites a line quantity; zero or less removes the line.
	SetQuantity(ctx context.Context, productID string, quantity int) model.LocalCart

	// RemoveItem removes the line holding productID.
	RemoveItem(ctx context.Context, productID string) model.LocalCart

	// Clear empties the cart.
	Clear(ctx context.Context) model.LocalCart
}

// ProductService defines product lookups used by the cart.
type ProductService interface {
	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
}

// MigrationService moves an anonymous cart into a client's remote cart.
type MigrationService interface {
	// Migrate supersedes the client's active cart with a new one holding the
	// local lines, then clears the local cart.
	Migrate(ctx context.Context, local LocalCartStore, clientID string) (*MigrationResult, error)
}

// OrderService defines order submission.
type OrderService interface {
	// Submit creates an order from the cart and issues its invoice.
	Submit(ctx context.Context, cartID, clientID string) (*SubmitResult, error)
}
