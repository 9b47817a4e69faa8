package service

import (
	"context"
	"errors"
	"fmt"

	"beauty-kart/internal/gateway"
	"beauty-kart/internal/model"

	"github.com/rs/zerolog"
)

// SkippedLine is a local line that could not be added to the remote cart.
type SkippedLine struct {
	Line   model.CartLine
	Reason error
}

// InsufficientStock reports whether the line was skipped for lack of stock.
func (s SkippedLine) InsufficientStock() bool {
	return errors.Is(s.Reason, model.ErrInsufficientStock)
}

// MigrationResult is the outcome of a migration. CartID is empty when the
// local cart was empty and nothing was sent.
type MigrationResult struct {
	CartID   string
	Migrated int
	Skipped  []SkippedLine
}

// Summary returns the message shown to the user when lines were skipped, or
// an empty string.
func (r *MigrationResult) Summary() string {
	if r == nil || len(r.Skipped) == 0 {
		return ""
	}

	for _, skipped := range r.Skipped {
		if !skipped.InsufficientStock() {
			return fmt.Sprintf("%d item(s) could not be added to your cart", len(r.Skipped))
		}
	}
	return fmt.Sprintf("%d item(s) could not be added (insufficient stock)", len(r.Skipped))
}

// migrationService implements MigrationService.
type migrationService struct {
	carts  gateway.CartGateway
	logger zerolog.Logger
}

// NewMigrationService creates a new migration service.
func NewMigrationService(carts gateway.CartGateway, logger zerolog.Logger) MigrationService {
	return &migrationService{
		carts:  carts,
		logger: logger.With().Str("service", "migration").Logger(),
	}
}

// Migrate runs the local-to-remote migration. The client's active cart, if
// any, is deactivated and never merged. Lines are added one at a time in
// cart order and a failed line is skipped without retry. A failure before
// the new cart exists leaves the local cart untouched.
func (s *migrationService) Migrate(ctx context.Context, local LocalCartStore, clientID string) (*MigrationResult, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id is required", model.ErrValidation)
	}

	cart := local.Get(ctx)
	if cart.IsEmpty() {
		s.logger.Debug().Str("client_id", clientID).Msg("local cart is empty, nothing to migrate")
		return &MigrationResult{}, nil
	}

	existing, err := s.carts.GetActiveCart(ctx, clientID)
	if err != nil {
		s.logger.Error().Err(err).Str("client_id", clientID).Msg("failed to look up active cart")
		return nil, fmt.Errorf("failed to migrate cart: %w", err)
	}

	if existing != nil {
		if _, err := s.carts.DeactivateCart(ctx, existing.ID); err != nil {
			s.logger.Error().
				Err(err).
				Str("client_id", clientID).
				Str("cart_id", existing.ID).
				Msg("failed to deactivate previous cart")
			return nil, fmt.Errorf("failed to migrate cart: %w", err)
		}
		s.logger.Info().
			Str("client_id", clientID).
			Str("cart_id", existing.ID).
			Msg("previous cart superseded")
	}

	created, err := s.carts.CreateCart(ctx, clientID)
	if err != nil {
		s.logger.Error().Err(err).Str("client_id", clientID).Msg("failed to create cart")
		return nil, fmt.Errorf("failed to migrate cart: %w", err)
	}

	// The new cart exists: finish even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	result := &MigrationResult{CartID: created.ID}
	for _, line := range cart.Lines {
		if _, err := s.carts.AddLine(ctx, created.ID, line.ProductID, line.Quantity); err != nil {
			s.logger.Warn().
				Err(err).
				Str("cart_id", created.ID).
				Str("product_id", line.ProductID).
				Int("quantity", line.Quantity).
				Msg("line skipped during migration")
			result.Skipped = append(result.Skipped, SkippedLine{Line: line, Reason: err})
			continue
		}
		result.Migrated++
	}

	local.Clear(ctx)

	s.logger.Info().
		Str("client_id", clientID).
		Str("cart_id", created.ID).
		Int("migrated", result.Migrated).
		Int("skipped", len(result.Skipped)).
		Msg("cart migrated")

	return result, nil
}
