package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalog "github.com/shopforge/commerce/internal/catalog/domain"
	coupon "github.com/shopforge/commerce/internal/coupon/domain"
	"github.com/shopforge/commerce/internal/order/domain"
	"github.com/shopforge/commerce/pkg/tracing"
)

type Service struct {
	log      *slog.Logger
	orders   OrderRepository
	products ProductStore
	coupons  CouponStore
	stock    StockPublisher
}

func NewService(log *slog.Logger, orders OrderRepository, products ProductStore, coupons CouponStore, stock StockPublisher) *Service {
	return &Service{
		log:      log,
		orders:   orders,
		products: products,
		coupons:  coupons,
		stock:    stock,
	}
}

// PlaceOrder validates the cart against live stock, applies an optional
// coupon, deducts inventory and persists the order. A product repeated
// across cart lines is coalesced into a single order line with the summed
// quantity. Steps up to the coupon redemption are pure validation; from
// the first stock decrement onward mutations are visible immediately and
// are not rolled back if a later step fails. The call is not cancellable
// once mutations have begun.
func (s *Service) PlaceOrder(ctx context.Context, userID string, items []ItemRequest, couponCode string) (domain.Order, error) {
	if len(items) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}

	ids := make([]string, 0, len(items))
	wanted := make(map[string]int, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return domain.Order{}, domain.ErrInvalidQuantity
		}
		if _, ok := wanted[it.ProductID]; !ok {
			ids = append(ids, it.ProductID)
		}
		wanted[it.ProductID] += it.Quantity
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return domain.Order{}, fmt.Errorf("fetch products: %w", err)
	}
	byID := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	total := decimal.Zero
	lines := make([]domain.OrderItem, 0, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return domain.Order{}, &domain.ProductNotFoundError{ProductID: id}
		}
		qty := wanted[id]
		if !p.InStock(qty) {
			return domain.Order{}, &domain.InsufficientStockError{ProductName: p.Name}
		}
		line := domain.OrderItem{ProductID: p.ID, Quantity: qty, Price: p.Price}
		total = total.Add(line.Subtotal())
		lines = append(lines, line)
	}

	discount := decimal.Zero
	if couponCode != "" {
		c, err := s.coupons.FindActiveByCode(ctx, coupon.NormalizeCode(couponCode))
		if errors.Is(err, coupon.ErrCouponNotFound) {
			return domain.Order{}, domain.ErrInvalidCoupon
		}
		if err != nil {
			return domain.Order{}, fmt.Errorf("fetch coupon: %w", err)
		}
		if c.Expired(time.Now().UTC()) {
			return domain.Order{}, domain.ErrCouponExpired
		}
		if c.LimitReached() {
			return domain.Order{}, domain.ErrCouponLimitReached
		}
		discount = c.Discount(total)
		total = total.Sub(discount)

		// Guarded increment at the store; a concurrent redemption that
		// exhausts the limit first surfaces here.
		if err := s.coupons.Redeem(ctx, c.ID); err != nil {
			if errors.Is(err, coupon.ErrLimitReached) {
				return domain.Order{}, domain.ErrCouponLimitReached
			}
			return domain.Order{}, fmt.Errorf("redeem coupon: %w", err)
		}
	}

	// Mutations start here.
	for _, line := range lines {
		newStock, err := s.products.DecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			if errors.Is(err, catalog.ErrInsufficientStock) {
				return domain.Order{}, &domain.InsufficientStockError{ProductName: byID[line.ProductID].Name}
			}
			return domain.Order{}, fmt.Errorf("decrement stock: %w", err)
		}
		s.stock.Publish(line.ProductID, newStock)
	}

	o := domain.NewOrder(uuid.NewString(), userID, lines, total, discount)
	payload, err := json.Marshal(domain.OrderPlaced{
		OrderID:  o.ID,
		UserID:   o.UserID,
		Total:    o.Total,
		Discount: o.Discount,
		Items:    o.Items,
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("marshal event: %w", err)
	}
	if err := s.orders.SaveWithOutbox(ctx, o, "OrderPlaced", payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	s.log.Info("order placed", "order_id", o.ID, "user_id", userID, "total", o.Total, "items", len(lines))
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListAll(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, domain.ErrInvalidStatus
	}
	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		return domain.Order{}, err
	}
	return s.orders.FindByID(ctx, id)
}
