package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Ref is a reference to another remote document. The API sends either the
// bare identifier or the populated document; only the identifier is kept.
type Ref string

// UnmarshalJSON accepts "id", {"_id": "id"} and null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = Ref(id)
		return nil
	}

	var doc struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid reference: %w", err)
	}
	*r = Ref(doc.ID)
	return nil
}

// String returns the referenced identifier.
func (r Ref) String() string {
	return string(r)
}

// ProductRef is a product reference on a cart line. When the API populates
// the product, its display fields are kept as well.
type ProductRef struct {
	ID    string
	Name  string
	Price decimal.Decimal
	Image *string
}

// UnmarshalJSON accepts a bare product id or a populated product document.
func (p *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ProductRef{}
		return nil
	}

	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*p = ProductRef{ID: id}
		return nil
	}

	var product Product
	if err := json.Unmarshal(data, &product); err != nil {
		return fmt.Errorf("invalid product reference: %w", err)
	}
	*p = ProductRef{
		ID:    product.ID,
		Name:  product.Name,
		Price: product.Price,
		Image: product.Image,
	}
	return nil
}

// MarshalJSON writes the product id only, which is what the API expects in requests.
func (p ProductRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ID)
}

// RemoteCart is a server-persisted cart tied to a client.
// At most one cart per client has IsActive set.
type RemoteCart struct {
	ID        string           `json:"_id"`
	ClientID  Ref              `json:"clientId"`
	IsActive  bool             `json:"est_actif"`
	Lines     []RemoteCartLine `json:"lignes,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// RemoteCartLine is a line of a remote cart. UnitPrice is the product price
// at the moment the line was added.
type RemoteCartLine struct {
	ID        string          `json:"_id"`
	CartID    Ref             `json:"panierId"`
	Product   ProductRef      `json:"produitId"`
	Quantity  int             `json:"quantite"`
	UnitPrice decimal.Decimal `json:"prixUnitaire"`
}

// LineTotal returns UnitPrice * Quantity.
func (l RemoteCartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartTotal is the payload of GET /paniers/{id}/total.
type CartTotal struct {
	Total decimal.Decimal `json:"total"`
}

// CartItemCount is the payload of GET /paniers/{id}/nombre-articles.
type CartItemCount struct {
	ItemCount int `json:"nombreArticles"`
}

// Order is the record created from a remote cart. Its content is owned by
// the remote API; TVA is carried as received.
type Order struct {
	ID        string          `json:"_id"`
	ClientID  Ref             `json:"clientId"`
	CartID    Ref             `json:"panierId"`
	Status    string          `json:"statut,omitempty"`
	Total     decimal.Decimal `json:"total"`
	TVA       decimal.Decimal `json:"tva"`
	InvoiceID Ref             `json:"factureId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Invoice is the record issued for an order.
type Invoice struct {
	ID      string          `json:"_id"`
	OrderID Ref             `json:"commandeId"`
	Number  string          `json:"numero,omitempty"`
	Status  string          `json:"statut,omitempty"`
	Total   decimal.Decimal `json:"total"`
}
