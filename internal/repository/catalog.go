package repository

import (
	"context"

	"github.com/ErlanBelekov/storefront-client/internal/domain"
)

// ProductSearch is the chatbot's free-form query: every keyword must match the
// name or description.
type ProductSearch struct {
	Keywords []string
	Category string
	Brand    string
	MinPrice *float64
	MaxPrice *float64
	Limit    int
}

type CatalogRepository interface {
	// List applies f and returns the requested page plus the total match count.
	List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error)
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	// FindByName returns the first product, by name order, whose name
	// contains fragment case-insensitively.
	FindByName(ctx context.Context, fragment string) (*domain.Product, error)
	Search(ctx context.Context, q ProductSearch) ([]domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}
