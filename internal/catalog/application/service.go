package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopforge/commerce/internal/catalog/domain"
)

var ErrInvalidProduct = errors.New("product needs a name, a non-negative price and a category")

type Service struct {
	log        *slog.Logger
	products   ProductRepository
	categories CategoryRepository
}

func NewService(log *slog.Logger, products ProductRepository, categories CategoryRepository) *Service {
	return &Service{log: log, products: products, categories: categories}
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  string
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	if in.Name == "" || in.CategoryID == "" || in.Price.IsNegative() || in.Stock < 0 {
		return domain.Product{}, ErrInvalidProduct
	}
	if _, err := s.categories.FindByID(ctx, in.CategoryID); err != nil {
		return domain.Product{}, err
	}
	now := time.Now().UTC()
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		CategoryID:  in.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Save(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]ProductWithCategory, error) {
	return s.products.List(ctx)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if in.Name == "" || in.CategoryID == "" || in.Price.IsNegative() || in.Stock < 0 {
		return domain.Product{}, ErrInvalidProduct
	}
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.Stock = in.Stock
	p.CategoryID = in.CategoryID
	p.UpdatedAt = time.Now().UTC()
	if err := s.products.Update(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

func (s *Service) CreateCategory(ctx context.Context, name, description string) (domain.Category, error) {
	now := time.Now().UTC()
	c := domain.Category{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Save(ctx, c); err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *Service) UpdateCategory(ctx context.Context, id, name, description string) (domain.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	c.Name = name
	c.Description = description
	c.UpdatedAt = time.Now().UTC()
	if err := s.categories.Update(ctx, c); err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	return s.categories.Delete(ctx, id)
}
