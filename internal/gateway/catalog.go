package gateway

import (
	"context"
	"net/http"

	"beauty-kart/internal/model"
)

// GetProduct returns a product.
func (c *Client) GetProduct(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	if err := c.doEnveloped(ctx, "get product", http.MethodGet,
		"produits/"+segment(productID), nil, "produit", &product); err != nil {
		return nil, err
	}
	if product.ID == "" {
		product.ID = productID
	}
	return &product, nil
}

// UpdateStock overwrites the stock of a product.
func (c *Client) UpdateStock(ctx context.Context, productID string, stock int) (*model.Product, error) {
	var product model.Product
	err := c.doEnveloped(ctx, "update stock", http.MethodPut, "produits/"+segment(productID)+"/stock",
		struct {
			Stock int `json:"stock"`
		}{Stock: stock}, "produit", &product)
	if err != nil {
		return nil, err
	}
	return &product, nil
}
