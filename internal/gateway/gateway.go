// Package gateway is the typed client of the storefront's remote REST API.
package gateway

import (
	"context"

	"beauty-kart/internal/model"

	"github.com/shopspring/decimal"
)

// CartGateway defines the remote cart and cart-line operations.
type CartGateway interface {
	// CreateCart creates a new active cart for the client.
	CreateCart(ctx context.Context, clientID string) (*model.RemoteCart, error)

	// GetActiveCart returns the client's active cart, or nil when there is none.
	GetActiveCart(ctx context.Context, clientID string) (*model.RemoteCart, error)

	// DeactivateCart marks a cart inactive.
	DeactivateCart(ctx context.Context, cartID string) (*model.RemoteCart, error)

	// DeleteCart deletes a cart.
	DeleteCart(ctx context.Context, cartID string) error

	// AddLine adds a product to a cart at the product's current price and
	// decrements the product stock. Fails with model.ErrInsufficientStock
	// when the stock cannot cover quantity.
	AddLine(ctx context.Context, cartID, productID string, quantity int) (*model.RemoteCartLine, error)

	// GetLines returns the lines of a cart.
	GetLines(ctx context.Context, cartID string) ([]model.RemoteCartLine, error)

	// GetTotal returns the cart total computed by the remote API.
	GetTotal(ctx context.Context, cartID string) (decimal.Decimal, error)

	// GetItemCount returns the number of units in the cart.
	GetItemCount(ctx context.Context, cartID string) (int, error)

	// UpdateLine changes the quantity of a line.
	UpdateLine(ctx context.Context, lineID string, quantity int, unitPrice decimal.Decimal) (*model.RemoteCartLine, error)

	// RemoveLine deletes a line from a cart.
	RemoveLine(ctx context.Context, cartID, lineID string) error
}

// CatalogGateway defines the product operations used by the cart.
type CatalogGateway interface {
	// GetProduct returns a product, or an error wrapping model.ErrNotFound.
	GetProduct(ctx context.Context, productID string) (*model.Product, error)

	// UpdateStock overwrites the stock of a product.
	UpdateStock(ctx context.Context, productID string, stock int) (*model.Product, error)
}

// OrderGateway defines order creation and invoicing.
type OrderGateway interface {
	// CreateOrder creates an order from a cart. The remote API deactivates
	// the cart as part of order creation.
	CreateOrder(ctx context.Context, cartID, clientID string) (*model.Order, error)

	// CreateInvoice issues the invoice of an order.
	CreateInvoice(ctx context.Context, orderID string) (*model.Invoice, error)

	// SendInvoiceEmail e-mails the invoice of an order to its client.
	SendInvoiceEmail(ctx context.Context, orderID string) error
}

// AuthGateway defines the login call of the authentication collaborator.
type AuthGateway interface {
	// Login exchanges credentials for an identity.
	Login(ctx context.Context, email, password string) (*model.Identity, error)
}

type tokenKey struct{}

// WithToken returns a context whose remote calls carry the bearer token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
