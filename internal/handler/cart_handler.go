package handler

import (
	"fmt"
	"net/http"

	"beauty-kart/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CartHandler handles cart-related HTTP requests.
type CartHandler struct {
	views  Views
	logger zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(views Views, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		views:  views,
		logger: logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := viewFor(h.views, r).Snapshot(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Badge handles GET /api/cart/badge requests.
func (h *CartHandler) Badge(w http.ResponseWriter, r *http.Request) {
	badge, err := viewFor(h.views, r).Badge(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, badge)
}

// AddItem handles POST /api/cart/items requests.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req model.AddItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	// Rejected here so an invalid request never reaches the remote API.
	if req.ProductID == "" {
		writeError(w, r, fmt.Errorf("%w: productId is required", model.ErrValidation), h.logger)
		return
	}
	if req.Quantity < 1 {
		writeError(w, r, model.ErrInvalidQuantity, h.logger)
		return
	}

	view, err := viewFor(h.views, r).AddItem(r.Context(), req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SetQuantity handles PUT /api/cart/items/{productId} requests. A quantity
// of zero or less removes the line.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	var req model.UpdateQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	view, err := viewFor(h.views, r).SetQuantity(r.Context(), productID, req.Quantity)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/cart/items/{productId} requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")

	view, err := viewFor(h.views, r).RemoveItem(r.Context(), productID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
