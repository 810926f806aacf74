package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	catalog "github.com/shopforge/commerce/internal/catalog/domain"
	coupon "github.com/shopforge/commerce/internal/coupon/domain"
	"github.com/shopforge/commerce/internal/order/domain"
)

type fakeProductStore struct {
	mu       sync.Mutex
	products map[string]catalog.Product
}

func newFakeProductStore(products ...catalog.Product) *fakeProductStore {
	m := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		m[p.ID] = p
	}
	return &fakeProductStore{products: m}
}

func (f *fakeProductStore) FindByIDs(_ context.Context, ids []string) ([]catalog.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductStore) DecrementStock(_ context.Context, id string, qty int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.Stock < qty {
		return 0, catalog.ErrInsufficientStock
	}
	p.Stock -= qty
	f.products[id] = p
	return p.Stock, nil
}

func (f *fakeProductStore) stock(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

type fakeCouponStore struct {
	mu      sync.Mutex
	coupons map[string]coupon.Coupon // by ID
}

func newFakeCouponStore(coupons ...coupon.Coupon) *fakeCouponStore {
	m := make(map[string]coupon.Coupon, len(coupons))
	for _, c := range coupons {
		m[c.ID] = c
	}
	return &fakeCouponStore{coupons: m}
}

func (f *fakeCouponStore) FindActiveByCode(_ context.Context, code string) (coupon.Coupon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.coupons {
		if c.Code == code && c.Active {
			return c, nil
		}
	}
	return coupon.Coupon{}, coupon.ErrCouponNotFound
}

func (f *fakeCouponStore) Redeem(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.coupons[id]
	if !ok || !c.Active || c.LimitReached() {
		return coupon.ErrLimitReached
	}
	c.UsedCount++
	f.coupons[id] = c
	return nil
}

func (f *fakeCouponStore) usedCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.coupons[id].UsedCount
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]domain.Order)}
}

func (f *fakeOrderRepo) SaveWithOutbox(_ context.Context, o domain.Order, _ string, _ []byte, _ string) error {
	// One line per product, as the store's schema requires.
	seen := make(map[string]struct{}, len(o.Items))
	for _, item := range o.Items {
		if _, dup := seen[item.ProductID]; dup {
			return errors.New("duplicate order line for product " + item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) FindByID(_ context.Context, id string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) ListAll(_ context.Context) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	f.orders[id] = o
	return nil
}

func (f *fakeOrderRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type stockEvent struct {
	productID string
	stock     int
}

type fakePublisher struct {
	mu     sync.Mutex
	events []stockEvent
}

func (f *fakePublisher) Publish(productID string, newStock int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, stockEvent{productID: productID, stock: newStock})
}

func (f *fakePublisher) all() []stockEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stockEvent(nil), f.events...)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func product(id, name string, price string, stock int) catalog.Product {
	return catalog.Product{ID: id, Name: name, Price: dec(price), Stock: stock, CategoryID: "cat-1"}
}

type fixture struct {
	svc      *Service
	products *fakeProductStore
	coupons  *fakeCouponStore
	orders   *fakeOrderRepo
	events   *fakePublisher
}

func newFixture(products *fakeProductStore, coupons *fakeCouponStore) fixture {
	orders := newFakeOrderRepo()
	events := &fakePublisher{}
	log := slog.New(slog.DiscardHandler)
	return fixture{
		svc:      NewService(log, orders, products, coupons, events),
		products: products,
		coupons:  coupons,
		orders:   orders,
		events:   events,
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(newFakeProductStore(), newFakeCouponStore())

	_, err := f.svc.PlaceOrder(context.Background(), "u1", nil, "")
	require.ErrorIs(t, err, domain.ErrEmptyOrder)
}

func TestPlaceOrderUnknownProduct(t *testing.T) {
	f := newFixture(newFakeProductStore(product("p1", "Keyboard", "49.99", 5)), newFakeCouponStore())

	_, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	}, "")

	var notFound *domain.ProductNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.ProductID)
	assert.Equal(t, 5, f.products.stock("p1"), "validation failures must not mutate stock")
	assert.Zero(t, f.orders.count())
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	f := newFixture(newFakeProductStore(product("p1", "Keyboard", "49.99", 1)), newFakeCouponStore())

	_, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{{ProductID: "p1", Quantity: 2}}, "")

	var noStock *domain.InsufficientStockError
	require.ErrorAs(t, err, &noStock)
	assert.Equal(t, "Keyboard", noStock.ProductName)
	assert.Equal(t, 1, f.products.stock("p1"))
	assert.Empty(t, f.events.all())
}

func TestPlaceOrderComputesTotalAndSnapshots(t *testing.T) {
	f := newFixture(newFakeProductStore(
		product("p1", "Keyboard", "49.99", 5),
		product("p2", "Mouse", "25.00", 10),
	), newFakeCouponStore())

	o, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, "u1", o.UserID)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.True(t, o.Total.Equal(dec("124.98")), "got total %s", o.Total)
	assert.True(t, o.Discount.IsZero())
	require.Len(t, o.Items, 2)
	assert.True(t, o.Items[0].Price.Equal(dec("49.99")), "line price is a snapshot")

	assert.Equal(t, 3, f.products.stock("p1"))
	assert.Equal(t, 9, f.products.stock("p2"))
	assert.Equal(t, []stockEvent{{"p1", 3}, {"p2", 9}}, f.events.all())
	assert.Equal(t, 1, f.orders.count())
}

func TestPlaceOrderCoalescesDuplicateLines(t *testing.T) {
	f := newFixture(newFakeProductStore(product("p1", "Keyboard", "49.99", 5)), newFakeCouponStore())

	o, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "p1", Quantity: 1},
	}, "")
	require.NoError(t, err)

	require.Len(t, o.Items, 1, "repeated cart lines collapse into one order line")
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.Total.Equal(dec("99.98")), "got total %s", o.Total)
	assert.Equal(t, 3, f.products.stock("p1"))
	assert.Equal(t, []stockEvent{{"p1", 3}}, f.events.all(), "one decrement, one push")
	assert.Equal(t, 1, f.orders.count())
}

func TestPlaceOrderDuplicateLinesBeyondStock(t *testing.T) {
	f := newFixture(newFakeProductStore(product("p1", "Keyboard", "49.99", 3)), newFakeCouponStore())

	_, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p1", Quantity: 2},
	}, "")

	var noStock *domain.InsufficientStockError
	require.ErrorAs(t, err, &noStock, "summed quantity is checked against stock")
	assert.Equal(t, 3, f.products.stock("p1"))
	assert.Empty(t, f.events.all())
}

func TestPlaceOrderRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(newFakeProductStore(product("p1", "Keyboard", "49.99", 5)), newFakeCouponStore())

	for _, qty := range []int{0, -3} {
		_, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{{ProductID: "p1", Quantity: qty}}, "")
		require.ErrorIs(t, err, domain.ErrInvalidQuantity, "quantity %d", qty)
		assert.True(t, domain.ClientError(err))
	}
	assert.Equal(t, 5, f.products.stock("p1"), "rejected quantities never touch stock")
	assert.Empty(t, f.events.all())
}

func TestPlaceOrderPercentageCoupon(t *testing.T) {
	c := coupon.Coupon{ID: "c1", Code: "SAVE10", DiscountType: coupon.Percentage, DiscountValue: dec("10"), Active: true}
	f := newFixture(newFakeProductStore(product("p1", "Desk", "100.00", 3)), newFakeCouponStore(c))

	o, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{{ProductID: "p1", Quantity: 1}}, "save10")
	require.NoError(t, err)

	assert.True(t, o.Discount.Equal(dec("10")), "got discount %s", o.Discount)
	assert.True(t, o.Total.Equal(dec("90")), "got total %s", o.Total)
	assert.Equal(t, 1, f.coupons.usedCount("c1"))
}

func TestPlaceOrderFixedCouponClampsAtZero(t *testing.T) {
	c := coupon.Coupon{ID: "c1", Code: "BIG30", DiscountType: coupon.Fixed, DiscountValue: dec("30"), Active: true}
	f := newFixture(newFakeProductStore(product("p1", "Cable", "20.00", 3)), newFakeCouponStore(c))

	o, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{{ProductID: "p1", Quantity: 1}}, "BIG30")
	require.NoError(t, err)

	assert.True(t, o.Discount.Equal(dec("20")), "discount clamps to the total")
	assert.True(t, o.Total.IsZero())
	assert.False(t, o.Total.IsNegative())
}

func TestPlaceOrderUnknownCoupon(t *testing.T) {
	f := newFixture(newFakeProductStore(product("p1", "Cable", "20.00", 3)), newFakeCouponStore())

	_, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{{ProductID: "p1", Quantity: 1}}, "NOPE")
	require.ErrorIs(t, err, domain.ErrInvalidCoupon)
	assert.Equal(t, 3, f.products.stock("p1"))
}

func TestPlaceOrderExpiredCoupon(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	c := coupon.Coupon{ID: "c1", Code: "OLD", DiscountType: coupon.Fixed, DiscountValue: dec("5"), Active: true, ExpiresAt: &past}
	f := newFixture(newFakeProductStore(product("p1", "Cable", "20.00", 3)), newFakeCouponStore(c))

	_, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{{ProductID: "p1", Quantity: 1}}, "OLD")
	require.ErrorIs(t, err, domain.ErrCouponExpired)
	assert.Zero(t, f.coupons.usedCount("c1"))
}

func TestPlaceOrderCouponLimitReached(t *testing.T) {
	c := coupon.Coupon{ID: "c1", Code: "ONCE", DiscountType: coupon.Fixed, DiscountValue: dec("5"), Active: true, UsageLimit: 1, UsedCount: 1}
	f := newFixture(newFakeProductStore(product("p1", "Cable", "20.00", 3)), newFakeCouponStore(c))

	_, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{{ProductID: "p1", Quantity: 1}}, "ONCE")
	require.ErrorIs(t, err, domain.ErrCouponLimitReached)
	assert.Equal(t, 3, f.products.stock("p1"), "no stock mutation on coupon rejection")
}

func TestConcurrentOrdersNeverOversell(t *testing.T) {
	const n = 8
	f := newFixture(newFakeProductStore(product("p1", "Drop", "10.00", n)), newFakeCouponStore())

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{{ProductID: "p1", Quantity: 1}}, "")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "order %d", i)
	}
	assert.Equal(t, 0, f.products.stock("p1"))
	assert.Len(t, f.events.all(), n)
}

func TestConcurrentOrdersBeyondStock(t *testing.T) {
	const stock, attempts = 5, 12
	f := newFixture(newFakeProductStore(product("p1", "Drop", "10.00", stock)), newFakeCouponStore())

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{{ProductID: "p1", Quantity: 1}}, "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var noStock *domain.InsufficientStockError
			assert.ErrorAs(t, err, &noStock)
		}
	}
	assert.Equal(t, stock, succeeded)
	assert.Equal(t, 0, f.products.stock("p1"))
}

func TestConcurrentCouponRedemptionsRespectLimit(t *testing.T) {
	const limit, attempts = 3, 10
	c := coupon.Coupon{ID: "c1", Code: "LTD", DiscountType: coupon.Fixed, DiscountValue: dec("1"), Active: true, UsageLimit: limit}
	f := newFixture(newFakeProductStore(product("p1", "Cable", "20.00", attempts)), newFakeCouponStore(c))

	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{{ProductID: "p1", Quantity: 1}}, "LTD")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrCouponLimitReached)
		}
	}
	assert.LessOrEqual(t, succeeded, limit)
	assert.Equal(t, limit, f.coupons.usedCount("c1"))
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(newFakeProductStore(), newFakeCouponStore())

	_, err := f.svc.UpdateStatus(context.Background(), "o1", "teleported")
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	f := newFixture(newFakeProductStore(), newFakeCouponStore())

	_, err := f.svc.UpdateStatus(context.Background(), "o1", domain.StatusShipped)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(newFakeProductStore(product("p1", "Cable", "20.00", 3)), newFakeCouponStore())

	o, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{{ProductID: "p1", Quantity: 1}}, "")
	require.NoError(t, err)

	updated, err := f.svc.UpdateStatus(context.Background(), o.ID, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
}

// Coupon limit checks happen before any stock mutation; a rejected coupon
// must leave the world untouched even with items already validated.
func TestCouponRejectionLeavesNoSideEffects(t *testing.T) {
	c := coupon.Coupon{ID: "c1", Code: "ONCE", DiscountType: coupon.Fixed, DiscountValue: dec("5"), Active: true, UsageLimit: 1, UsedCount: 1}
	f := newFixture(newFakeProductStore(product("p1", "Cable", "20.00", 3)), newFakeCouponStore(c))

	_, err := f.svc.PlaceOrder(context.Background(), "u1", []ItemRequest{
		{ProductID: "p1", Quantity: 2},
	}, "ONCE")

	require.ErrorIs(t, err, domain.ErrCouponLimitReached)
	assert.Equal(t, 3, f.products.stock("p1"))
	assert.Empty(t, f.events.all())
	assert.Zero(t, f.orders.count())
}
