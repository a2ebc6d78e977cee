package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"vitrine/internal/domain"
	"vitrine/internal/repos"
	"vitrine/internal/validate"
)

// Coupon rejection reasons. Each maps to a specific user-facing message;
// none of them mutates anything.
var (
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrCouponInactive  = errors.New("coupon is not active")
	ErrCouponExpired   = errors.New("coupon has expired")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// BelowMinPurchaseError carries the threshold so the UI can show it.
type BelowMinPurchaseError struct {
	Min decimal.Decimal
}

func (e *BelowMinPurchaseError) Error() string {
	return fmt.Sprintf("cart subtotal below coupon minimum of %s", e.Min.StringFixed(2))
}

type CouponService struct {
	Coupons *repos.CouponRepo
}

func NewCouponService(coupons *repos.CouponRepo) *CouponService {
	return &CouponService{Coupons: coupons}
}

// Validate checks a shopper-typed code against the current subtotal and
// resolves its discount. Read-only: usage is consumed at order placement,
// never here, so shoppers can re-validate freely before confirming.
func (s *CouponService) Validate(code string, subtotal decimal.Decimal) (*domain.Coupon, decimal.Decimal, error) {
	norm, ok := validate.CouponCode(code)
	if !ok {
		return nil, decimal.Zero, ErrCouponNotFound
	}

	c, err := s.Coupons.ByCode(norm)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, decimal.Zero, ErrCouponNotFound
		}
		return nil, decimal.Zero, err
	}

	if !c.Active {
		return nil, decimal.Zero, ErrCouponInactive
	}
	if c.ExpiresAt != nil {
		// An expiry we cannot parse counts as expired, never as open-ended;
		// otherwise placement's guard would reject what validation passed.
		exp, err := time.Parse(time.RFC3339, *c.ExpiresAt)
		if err != nil || exp.Before(time.Now().UTC()) {
			return nil, decimal.Zero, ErrCouponExpired
		}
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return nil, decimal.Zero, ErrCouponExhausted
	}
	if subtotal.LessThan(c.MinPurchase) {
		return nil, decimal.Zero, &BelowMinPurchaseError{Min: c.MinPurchase}
	}

	return c, Discount(c, subtotal), nil
}
