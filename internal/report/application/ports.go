package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ProductSales struct {
	ProductID     string          `json:"productId"`
	ProductName   string          `json:"productName"`
	CategoryID    string          `json:"categoryId"`
	TotalQuantity int             `json:"totalQuantity"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

type CategoryRevenue struct {
	CategoryID   string          `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// ReportRepository aggregates over non-cancelled orders within a range.
type ReportRepository interface {
	SalesByProduct(ctx context.Context, start, end time.Time) ([]ProductSales, error)
	RevenueByCategory(ctx context.Context, start, end time.Time) ([]CategoryRevenue, error)
}
