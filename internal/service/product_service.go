package service

import (
	"context"
	"fmt"

	"beauty-kart/internal/gateway"
	"beauty-kart/internal/model"

	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	catalog gateway.CatalogGateway
	logger  zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(catalog gateway.CatalogGateway, logger zerolog.Logger) ProductService {
	return &productService{
		catalog: catalog,
		logger:  logger.With().Str("service", "product").Logger(),
	}
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		s.logger.Warn().Msg("product ID is empty")
		return nil, fmt.Errorf("%w: product id is required", model.ErrValidation)
	}

	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	s.logger.Debug().
		Str("product_id", id).
		Int("stock", product.Stock).
		Msg("retrieved product")

	return product, nil
}
