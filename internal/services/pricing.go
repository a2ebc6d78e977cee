package services

import (
	"github.com/shopspring/decimal"

	"vitrine/internal/domain"
)

// Pricing engine. Every amount is a two-decimal monetary value; arithmetic
// stays in decimals end to end so the persisted totals never drift.

var oneHundred = decimal.NewFromInt(100)

// Subtotal sums line price × quantity across the cart.
func Subtotal(lines []domain.CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total.Round(2)
}

// Discount resolves a coupon against a subtotal. Percentage coupons scale
// with the subtotal; fixed coupons are face value, not capped here — the
// clamp in Total absorbs anything beyond subtotal+shipping.
func Discount(c *domain.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	switch c.DiscountType {
	case domain.DiscountPercentage:
		return subtotal.Mul(c.DiscountValue).Div(oneHundred).Round(2)
	case domain.DiscountFixed:
		return c.DiscountValue.Round(2)
	}
	return decimal.Zero
}

// Total computes max(0, subtotal + shipping − discount).
func Total(subtotal, shipping, discount decimal.Decimal) decimal.Decimal {
	t := subtotal.Add(shipping).Sub(discount)
	if t.IsNegative() {
		return decimal.Zero
	}
	return t.Round(2)
}
