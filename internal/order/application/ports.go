package application

import (
	"context"

	catalog "github.com/shopforge/commerce/internal/catalog/domain"
	coupon "github.com/shopforge/commerce/internal/coupon/domain"
	"github.com/shopforge/commerce/internal/order/domain"
)

// ItemRequest is one requested line of a cart, prior to validation.
type ItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type ProductStore interface {
	FindByIDs(ctx context.Context, ids []string) ([]catalog.Product, error)
	// DecrementStock subtracts qty in a single conditional update and
	// returns the remaining stock. catalog.ErrInsufficientStock when the
	// guard loses.
	DecrementStock(ctx context.Context, id string, qty int) (int, error)
}

type CouponStore interface {
	FindActiveByCode(ctx context.Context, code string) (coupon.Coupon, error)
	// Redeem increments the used count, guarded by the usage limit.
	Redeem(ctx context.Context, id string) error
}

type OrderRepository interface {
	SaveWithOutbox(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error
	FindByID(ctx context.Context, id string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

// StockPublisher receives stock deltas after each deduction. Delivery is
// best-effort; implementations must never block or fail the pipeline.
type StockPublisher interface {
	Publish(productID string, newStock int)
}
