package handler

import (
	"net/http"

	"beauty-kart/internal/model"

	"github.com/rs/zerolog"
)

// CheckoutHandler turns the session's cart into an order.
type CheckoutHandler struct {
	views  Views
	logger zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(views Views, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		views:  views,
		logger: logger.With().Str("handler", "checkout").Logger(),
	}
}

// Checkout handles POST /api/checkout requests.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	result, err := viewFor(h.views, r).Checkout(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order := result.Submit.Order
	h.logger.Info().
		Str("order_id", order.ID).
		Str("cart_id", order.CartID.String()).
		Bool("invoice_issued", result.Submit.InvoiceIssued).
		Msg("checkout completed")

	writeJSON(w, http.StatusCreated, model.CheckoutResponse{
		OrderID:        order.ID,
		Status:         order.Status,
		Total:          order.Total,
		InvoiceIssued:  result.Submit.InvoiceIssued,
		InvoiceEmailed: result.Submit.InvoiceEmailed,
		Migration:      migrationResponse(result.Migration),
	})
}
