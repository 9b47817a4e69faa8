package gateway

import (
	"context"
	"errors"
	"net/http"

	"beauty-kart/internal/model"

	"github.com/shopspring/decimal"
)

type cartRequest struct {
	ClientID string `json:"clientId,omitempty"`
	IsActive *bool  `json:"est_actif,omitempty"`
}

// CreateCart creates a new active cart for the client.
func (c *Client) CreateCart(ctx context.Context, clientID string) (*model.RemoteCart, error) {
	active := true
	var cart model.RemoteCart
	err := c.doEnveloped(ctx, "create cart", http.MethodPost, "paniers",
		cartRequest{ClientID: clientID, IsActive: &active}, "panier", &cart)
	if err != nil {
		return nil, err
	}
	if cart.ID == "" {
		return nil, &Error{Op: "create cart", Message: "response has no cart id", Err: model.ErrRemoteRejected}
	}
	return &cart, nil
}

// GetActiveCart returns the client's active cart. A 404 means the client has
// no active cart and yields nil without error.
func (c *Client) GetActiveCart(ctx context.Context, clientID string) (*model.RemoteCart, error) {
	var cart model.RemoteCart
	err := c.doEnveloped(ctx, "get active cart", http.MethodGet,
		"paniers/client/"+segment(clientID)+"/actif", nil, "panier", &cart)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if cart.ID == "" {
		return nil, nil
	}
	return &cart, nil
}

// DeactivateCart marks a cart inactive.
func (c *Client) DeactivateCart(ctx context.Context, cartID string) (*model.RemoteCart, error) {
	inactive := false
	var cart model.RemoteCart
	err := c.doEnveloped(ctx, "deactivate cart", http.MethodPut,
		"paniers/"+segment(cartID), cartRequest{IsActive: &inactive}, "panier", &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// DeleteCart deletes a cart.
func (c *Client) DeleteCart(ctx context.Context, cartID string) error {
	return c.do(ctx, "delete cart", http.MethodDelete, "paniers/"+segment(cartID), nil, nil)
}

// GetTotal returns the cart total computed by the remote API.
func (c *Client) GetTotal(ctx context.Context, cartID string) (decimal.Decimal, error) {
	var total model.CartTotal
	if err := c.do(ctx, "get cart total", http.MethodGet,
		"paniers/"+segment(cartID)+"/total", nil, &total); err != nil {
		return decimal.Zero, err
	}
	return total.Total, nil
}

// GetItemCount returns the number of units in the cart.
func (c *Client) GetItemCount(ctx context.Context, cartID string) (int, error) {
	var count model.CartItemCount
	if err := c.do(ctx, "get cart item count", http.MethodGet,
		"paniers/"+segment(cartID)+"/nombre-articles", nil, &count); err != nil {
		return 0, err
	}
	return count.ItemCount, nil
}
