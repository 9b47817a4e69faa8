package model

import "github.com/shopspring/decimal"

// AddItemRequest represents the request payload for adding a product to the cart.
type AddItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateQuantityRequest represents the request payload for changing a line quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SkippedLineResponse describes a local line that could not be migrated.
type SkippedLineResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// MigrationResponse represents the outcome of a local-to-remote cart migration.
type MigrationResponse struct {
	CartID   string                `json:"cartId,omitempty"`
	Migrated int                   `json:"migrated"`
	Skipped  []SkippedLineResponse `json:"skipped"`
	Message  string                `json:"message,omitempty"`
}

// CheckoutResponse represents the response payload for a checkout.
type CheckoutResponse struct {
	OrderID        string             `json:"orderId"`
	Status         string             `json:"status,omitempty"`
	Total          decimal.Decimal    `json:"total"`
	InvoiceIssued  bool               `json:"invoiceIssued"`
	InvoiceEmailed bool               `json:"invoiceEmailed"`
	Migration      *MigrationResponse `json:"migration,omitempty"`
}
