package gateway

import (
	"context"
	"net/http"

	"beauty-kart/internal/model"
)

// CreateOrder creates an order from a cart.
func (c *Client) CreateOrder(ctx context.Context, cartID, clientID string) (*model.Order, error) {
	var order model.Order
	err := c.doEnveloped(ctx, "create order", http.MethodPost, "commandes/"+segment(cartID),
		struct {
			ClientID string `json:"clientId"`
		}{ClientID: clientID}, "commande", &order)
	if err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, &Error{Op: "create order", Message: "response has no order id", Err: model.ErrRemoteRejected}
	}
	if order.CartID == "" {
		order.CartID = model.Ref(cartID)
	}
	return &order, nil
}

// CreateInvoice issues the invoice of an order.
func (c *Client) CreateInvoice(ctx context.Context, orderID string) (*model.Invoice, error) {
	var invoice model.Invoice
	err := c.doEnveloped(ctx, "create invoice", http.MethodPost, "factures",
		struct {
			OrderID string `json:"commandeId"`
		}{OrderID: orderID}, "facture", &invoice)
	if err != nil {
		return nil, err
	}
	if invoice.OrderID == "" {
		invoice.OrderID = model.Ref(orderID)
	}
	return &invoice, nil
}

// SendInvoiceEmail e-mails the invoice of an order to its client.
func (c *Client) SendInvoiceEmail(ctx context.Context, orderID string) error {
	return c.do(ctx, "send invoice email", http.MethodPost, "email/send-facture/"+segment(orderID), nil, nil)
}
