package ports

import (
	"context"

	"storefront-orders/internal/features/catalog/domain"
)

// ProductRepository is the secondary port for product documents and stock counters.
type ProductRepository interface {
	// GetByID returns the product with its current stock, or domain.ErrProductNotFound.
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// Save upserts the product document and overwrites its stock counter.
	Save(ctx context.Context, product *domain.Product) error
	// DecrementStock subtracts qty only if the current stock covers it, in one atomic step.
	// It returns false without mutating anything when stock is insufficient.
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	// IncrementStock adds qty back, used to compensate earlier decrements.
	IncrementStock(ctx context.Context, id string, qty int) error
}

// CatalogService is the primary port used by the catalog handler.
type CatalogService interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	UpsertProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
}
