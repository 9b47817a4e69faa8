package model

import "github.com/shopspring/decimal"

// Product represents a catalogue product as served by the remote API.
type Product struct {
	ID          string          `json:"_id"`
	Name        string          `json:"nom"`
	Price       decimal.Decimal `json:"prix"`
	Stock       int             `json:"stock"`
	Image       *string         `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
	Volume      string          `json:"volume,omitempty"`
}
