package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")

	// ErrInsufficientStock is returned by the conditional stock decrement
	// when the guard fails; stock is left untouched.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p Product) InStock(quantity int) bool {
	return p.Stock >= quantity
}
