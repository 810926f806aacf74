package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopforge/commerce/internal/coupon/domain"
)

var ErrInvalidCouponInput = errors.New("coupon needs a code, a discount type of percentage or fixed, and a non-negative value")

type Service struct {
	log  *slog.Logger
	repo CouponRepository
}

func NewService(log *slog.Logger, repo CouponRepository) *Service {
	return &Service{log: log, repo: repo}
}

type CouponInput struct {
	Code          string
	DiscountType  domain.DiscountType
	DiscountValue decimal.Decimal
	Active        bool
	ExpiresAt     *time.Time
	UsageLimit    int
}

func (in CouponInput) validate() error {
	if in.Code == "" || in.DiscountValue.IsNegative() || in.UsageLimit < 0 {
		return ErrInvalidCouponInput
	}
	if in.DiscountType != domain.Percentage && in.DiscountType != domain.Fixed {
		return ErrInvalidCouponInput
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in CouponInput) (domain.Coupon, error) {
	if err := in.validate(); err != nil {
		return domain.Coupon{}, err
	}
	now := time.Now().UTC()
	c := domain.Coupon{
		ID:            uuid.NewString(),
		Code:          domain.NormalizeCode(in.Code),
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		Active:        in.Active,
		ExpiresAt:     in.ExpiresAt,
		UsageLimit:    in.UsageLimit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return domain.Coupon{}, err
	}
	return c, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (domain.Coupon, error) {
	return s.repo.FindActiveByCode(ctx, domain.NormalizeCode(code))
}

func (s *Service) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *Service) Update(ctx context.Context, id string, in CouponInput) (domain.Coupon, error) {
	if err := in.validate(); err != nil {
		return domain.Coupon{}, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Coupon{}, err
	}
	c.Code = domain.NormalizeCode(in.Code)
	c.DiscountType = in.DiscountType
	c.DiscountValue = in.DiscountValue
	c.Active = in.Active
	c.ExpiresAt = in.ExpiresAt
	c.UsageLimit = in.UsageLimit
	c.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, c); err != nil {
		return domain.Coupon{}, err
	}
	return c, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
