package application

import (
	"context"

	"github.com/shopforge/commerce/internal/coupon/domain"
)

type CouponRepository interface {
	Save(ctx context.Context, c domain.Coupon) error
	FindByID(ctx context.Context, id string) (domain.Coupon, error)
	FindActiveByCode(ctx context.Context, code string) (domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
	Update(ctx context.Context, c domain.Coupon) error
	Delete(ctx context.Context, id string) error
	// Redeem increments used_count iff the usage limit allows it, in a
	// single guarded update. domain.ErrLimitReached when the guard fails.
	Redeem(ctx context.Context, id string) error
}
