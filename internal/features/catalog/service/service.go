package service

import (
	"context"
	"fmt"
	"time"

	"storefront-orders/internal/features/catalog/domain"
	"storefront-orders/internal/features/catalog/ports"
)

// CatalogServiceImpl implements ports.CatalogService.
type CatalogServiceImpl struct {
	repo ports.ProductRepository
}

// NewCatalogService creates a new CatalogServiceImpl.
func NewCatalogService(repo ports.ProductRepository) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		repo: repo,
	}
}

// GetProduct returns a product with its live stock.
func (s *CatalogServiceImpl) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: failed to get product: %w", err)
	}
	return product, nil
}

// UpsertProduct validates and stores a product, overwriting its stock counter.
func (s *CatalogServiceImpl) UpsertProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := product.Validate(); err != nil {
		return nil, err
	}

	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("service: failed to save product: %w", err)
	}
	return product, nil
}
