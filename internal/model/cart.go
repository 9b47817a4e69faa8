package model

import "github.com/shopspring/decimal"

// CartLine is one product entry of the anonymous visitor's cart.
// Name, UnitPrice and Image are snapshotted when the line is first added.
type CartLine struct {
	ProductID string          `json:"produitId"`
	Name      string          `json:"nom"`
	UnitPrice decimal.Decimal `json:"prix"`
	Image     *string         `json:"image"`
	Quantity  int             `json:"quantite"`
}

// LineTotal returns UnitPrice * Quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LocalCart is the session-persisted cart of an anonymous visitor.
// Lines keep insertion order.
type LocalCart struct {
	Lines []CartLine      `json:"articles"`
	Total decimal.Decimal `json:"total"`
}

// EmptyLocalCart returns a cart with no lines and a zero total.
func EmptyLocalCart() LocalCart {
	return LocalCart{Lines: []CartLine{}, Total: decimal.Zero}
}

// Recompute sets Total to the sum of every line total.
func (c *LocalCart) Recompute() {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.LineTotal())
	}
	c.Total = total
}

// ItemCount returns the sum of quantities across lines.
func (c LocalCart) ItemCount() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (c LocalCart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// IndexOf returns the position of the line holding productID, or -1.
func (c LocalCart) IndexOf(productID string) int {
	for i, line := range c.Lines {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}
