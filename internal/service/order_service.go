package service

import (
	"context"
	"fmt"

	"beauty-kart/internal/gateway"
	"beauty-kart/internal/model"

	"github.com/rs/zerolog"
)

// SubmitResult is the outcome of an order submission. The order exists
// whenever a result is returned; the invoice flags report the follow-up
// steps.
type SubmitResult struct {
	Order          *model.Order
	Invoice        *model.Invoice
	InvoiceIssued  bool
	InvoiceEmailed bool
}

// orderService implements OrderService.
type orderService struct {
	orders gateway.OrderGateway
	logger zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orders gateway.OrderGateway, logger zerolog.Logger) OrderService {
	return &orderService{
		orders: orders,
		logger: logger.With().Str("service", "order").Logger(),
	}
}

// Submit creates an order from the cart, then issues and e-mails its
// invoice. Invoice failures are logged and flagged on the result.
func (s *orderService) Submit(ctx context.Context, cartID, clientID string) (*SubmitResult, error) {
	if cartID == "" || clientID == "" {
		return nil, fmt.Errorf("%w: cart id and client id are required", model.ErrValidation)
	}

	order, err := s.orders.CreateOrder(ctx, cartID, clientID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("cart_id", cartID).
			Str("client_id", clientID).
			Msg("failed to create order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("cart_id", cartID).
		Str("total", order.Total.String()).
		Msg("order created successfully")

	result := &SubmitResult{Order: order}

	// The order is placed; invoicing must not be abandoned with the request.
	ctx = context.WithoutCancel(ctx)

	invoice, err := s.orders.CreateInvoice(ctx, order.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to issue invoice")
		return result, nil
	}
	result.Invoice = invoice
	result.InvoiceIssued = true

	if err := s.orders.SendInvoiceEmail(ctx, order.ID); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to send invoice email")
		return result, nil
	}
	result.InvoiceEmailed = true

	return result, nil
}
