package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrCouponNotFound = errors.New("coupon not found")

	// ErrLimitReached is returned by the guarded redeem when the usage
	// limit has been exhausted, including by a concurrent redemption.
	ErrLimitReached = errors.New("coupon usage limit reached")
)

type DiscountType string

const (
	Percentage DiscountType = "percentage"
	Fixed      DiscountType = "fixed"
)

// Coupon codes are case-insensitive and stored uppercase.
// UsageLimit 0 means unlimited.
type Coupon struct {
	ID            string
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	Active        bool
	ExpiresAt     *time.Time
	UsageLimit    int
	UsedCount     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (c Coupon) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

func (c Coupon) LimitReached() bool {
	return c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit
}

// Discount computes the amount taken off the given total, clamped so the
// discounted total never drops below zero.
func (c Coupon) Discount(total decimal.Decimal) decimal.Decimal {
	var d decimal.Decimal
	switch c.DiscountType {
	case Percentage:
		d = total.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
	case Fixed:
		d = c.DiscountValue
	}
	if d.GreaterThan(total) {
		return total
	}
	return d
}
