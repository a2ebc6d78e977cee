package services_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"vitrine/internal/domain"
	"vitrine/internal/services"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSubtotalSumsLines(t *testing.T) {
	lines := []domain.CartLine{
		{ProductID: "a", Price: d("299.90"), Qty: 2},
		{ProductID: "b", Price: d("89.90"), Qty: 1},
	}
	got := services.Subtotal(lines)
	if !got.Equal(d("689.70")) {
		t.Fatalf("subtotal: want 689.70, got %s", got)
	}
}

func TestSubtotalEmptyCartIsZero(t *testing.T) {
	if got := services.Subtotal(nil); !got.IsZero() {
		t.Fatalf("want 0, got %s", got)
	}
}

func TestDiscountPercentageRoundsToCents(t *testing.T) {
	c := &domain.Coupon{DiscountType: domain.DiscountPercentage, DiscountValue: d("10")}
	got := services.Discount(c, d("33.33"))
	if !got.Equal(d("3.33")) {
		t.Fatalf("want 3.33, got %s", got)
	}
}

func TestDiscountFixedIsFaceValue(t *testing.T) {
	c := &domain.Coupon{DiscountType: domain.DiscountFixed, DiscountValue: d("25")}
	got := services.Discount(c, d("10.00"))
	if !got.Equal(d("25")) {
		t.Fatalf("want 25, got %s", got)
	}
}

func TestDiscountNilCouponIsZero(t *testing.T) {
	if got := services.Discount(nil, d("100")); !got.IsZero() {
		t.Fatalf("want 0, got %s", got)
	}
}

func TestTotalNeverNegative(t *testing.T) {
	// fixed discount larger than subtotal + shipping clamps to zero
	got := services.Total(d("10"), d("5"), d("50"))
	if !got.IsZero() {
		t.Fatalf("want 0, got %s", got)
	}
}

func TestTotalAddsShippingBeforeDiscount(t *testing.T) {
	got := services.Total(d("200"), d("25"), d("20"))
	if !got.Equal(d("205")) {
		t.Fatalf("want 205, got %s", got)
	}
}
