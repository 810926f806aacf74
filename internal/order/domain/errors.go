package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrder         = errors.New("order must have products")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrInvalidCoupon      = errors.New("invalid coupon code")
	ErrCouponExpired      = errors.New("coupon expired")
	ErrCouponLimitReached = errors.New("coupon usage limit reached")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInvalidStatus      = errors.New("invalid status")
)

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

type InsufficientStockError struct {
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

// ClientError reports whether err belongs to the caller-caused taxonomy,
// surfaced with a 4xx status and its own message. Anything else is an
// internal failure that must not leak verbatim to the caller.
func ClientError(err error) bool {
	var notFound *ProductNotFoundError
	var noStock *InsufficientStockError
	switch {
	case errors.As(err, &notFound), errors.As(err, &noStock):
		return true
	case errors.Is(err, ErrEmptyOrder),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidCoupon),
		errors.Is(err, ErrCouponExpired),
		errors.Is(err, ErrCouponLimitReached),
		errors.Is(err, ErrInvalidStatus):
		return true
	}
	return false
}
