package application

import (
	"context"

	"github.com/shopforge/commerce/internal/catalog/domain"
)

// ProductWithCategory is a product joined with its category for listing.
type ProductWithCategory struct {
	domain.Product
	Category domain.Category
}

type ProductRepository interface {
	Save(ctx context.Context, p domain.Product) error
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	List(ctx context.Context) ([]ProductWithCategory, error)
	Update(ctx context.Context, p domain.Product) error
	Delete(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string, qty int) (int, error)
}

type CategoryRepository interface {
	Save(ctx context.Context, c domain.Category) error
	FindByID(ctx context.Context, id string) (domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
	Update(ctx context.Context, c domain.Category) error
	Delete(ctx context.Context, id string) error
}
