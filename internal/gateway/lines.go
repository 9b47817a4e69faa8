package gateway

import (
	"context"
	"fmt"
	"net/http"

	"beauty-kart/internal/model"

	"github.com/shopspring/decimal"
)

type lineRequest struct {
	CartID    string           `json:"panierId,omitempty"`
	ProductID string           `json:"produitId,omitempty"`
	Quantity  int              `json:"quantite"`
	UnitPrice *decimal.Decimal `json:"prixUnitaire,omitempty"`
}

// AddLine reads the product, checks its stock, creates the line at the
// current price and then writes the decremented stock back. A failed stock
// write is logged and does not fail the call since the line already exists.
func (c *Client) AddLine(ctx context.Context, cartID, productID string, quantity int) (*model.RemoteCartLine, error) {
	const op = "add cart line"

	if quantity < 1 {
		return nil, &Error{Op: op, Message: fmt.Sprintf("quantity %d is below 1", quantity), Err: model.ErrInvalidQuantity}
	}

	product, err := c.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Stock < quantity {
		return nil, &Error{
			Op:      op,
			Message: fmt.Sprintf("only %d of %s in stock, %d requested", product.Stock, productID, quantity),
			Err:     model.ErrInsufficientStock,
		}
	}

	price := product.Price
	var line model.RemoteCartLine
	err = c.doEnveloped(ctx, op, http.MethodPost, "ligne-panier", lineRequest{
		CartID:    cartID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: &price,
	}, "ligne", &line)
	if err != nil {
		return nil, err
	}

	if line.Product.ID == "" {
		line.Product.ID = productID
	}
	if line.Product.Name == "" {
		line.Product.Name = product.Name
		line.Product.Image = product.Image
	}
	if line.UnitPrice.IsZero() {
		line.UnitPrice = price
	}

	if _, err := c.UpdateStock(ctx, productID, product.Stock-quantity); err != nil {
		c.logger.Warn().
			Err(err).
			Str("cart_id", cartID).
			Str("product_id", productID).
			Int("quantity", quantity).
			Msg("line added but stock decrement failed")
	}

	return &line, nil
}

// GetLines returns the lines of a cart.
func (c *Client) GetLines(ctx context.Context, cartID string) ([]model.RemoteCartLine, error) {
	var lines []model.RemoteCartLine
	if err := c.do(ctx, "get cart lines", http.MethodGet,
		"ligne-panier/"+segment(cartID), nil, &lines); err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []model.RemoteCartLine{}
	}
	return lines, nil
}

// UpdateLine changes the quantity of a line.
func (c *Client) UpdateLine(ctx context.Context, lineID string, quantity int, unitPrice decimal.Decimal) (*model.RemoteCartLine, error) {
	const op = "update cart line"

	if quantity < 1 {
		return nil, &Error{Op: op, Message: fmt.Sprintf("quantity %d is below 1", quantity), Err: model.ErrInvalidQuantity}
	}

	var line model.RemoteCartLine
	err := c.doEnveloped(ctx, op, http.MethodPut, "ligne-panier/"+segment(lineID), lineRequest{
		Quantity:  quantity,
		UnitPrice: &unitPrice,
	}, "ligne", &line)
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// RemoveLine deletes a line from a cart.
func (c *Client) RemoveLine(ctx context.Context, cartID, lineID string) error {
	return c.do(ctx, "remove cart line", http.MethodDelete,
		"ligne-panier/"+segment(cartID)+"/"+segment(lineID), nil, nil)
}
