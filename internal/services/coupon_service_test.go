package services_test

import (
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"vitrine/internal/repos"
	"vitrine/internal/services"
)

func seededDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func couponSvc(db *sqlx.DB) *services.CouponService {
	return services.NewCouponService(repos.NewCouponRepo(db))
}

func TestValidateCouponPercentage(t *testing.T) {
	db := seededDB(t)
	svc := couponSvc(db)

	c, discount, err := svc.Validate("PROMO10", d("200"))
	require.NoError(t, err)
	require.Equal(t, "PROMO10", c.Code)
	require.True(t, discount.Equal(d("20")), "got %s", discount)
}

func TestValidateCouponIsCaseInsensitive(t *testing.T) {
	db := seededDB(t)
	svc := couponSvc(db)

	c, _, err := svc.Validate("  promo10 ", d("100"))
	require.NoError(t, err)
	require.Equal(t, "PROMO10", c.Code)
}

func TestValidateCouponDoesNotConsumeUsage(t *testing.T) {
	db := seededDB(t)
	svc := couponSvc(db)

	for i := 0; i < 3; i++ {
		_, _, err := svc.Validate("PROMO10", d("100"))
		require.NoError(t, err)
	}
	var count int
	require.NoError(t, db.Get(&count, `SELECT usage_count FROM coupons WHERE code='PROMO10'`))
	require.Zero(t, count, "validation must be read-only")
}

func TestValidateCouponNotFound(t *testing.T) {
	db := seededDB(t)
	_, _, err := couponSvc(db).Validate("NOPE", d("100"))
	require.ErrorIs(t, err, services.ErrCouponNotFound)
}

func TestValidateCouponBelowMinPurchase(t *testing.T) {
	db := seededDB(t)

	// FRETE25 requires a 150.00 subtotal
	_, _, err := couponSvc(db).Validate("FRETE25", d("149.99"))
	var minErr *services.BelowMinPurchaseError
	require.True(t, errors.As(err, &minErr))
	require.True(t, minErr.Min.Equal(d("150")), "got %s", minErr.Min)

	_, discount, err := couponSvc(db).Validate("FRETE25", d("150"))
	require.NoError(t, err)
	require.True(t, discount.Equal(d("25")))
}

func TestValidateCouponInactive(t *testing.T) {
	db := seededDB(t)
	db.MustExec(`INSERT INTO coupons(id,code,discount_type,discount_value,active)
	             VALUES('c-off','OFF','percentage',5,0)`)

	_, _, err := couponSvc(db).Validate("OFF", d("100"))
	require.ErrorIs(t, err, services.ErrCouponInactive)
}

func TestValidateCouponExpired(t *testing.T) {
	db := seededDB(t)
	db.MustExec(`INSERT INTO coupons(id,code,discount_type,discount_value,expires_at)
	             VALUES('c-old','OLD','percentage',5,'2020-01-01T00:00:00Z')`)

	_, _, err := couponSvc(db).Validate("OLD", d("100"))
	require.ErrorIs(t, err, services.ErrCouponExpired)
}

func TestValidateCouponMalformedExpiryCountsAsExpired(t *testing.T) {
	db := seededDB(t)
	// date-only value, not RFC3339; must not pass as open-ended
	db.MustExec(`INSERT INTO coupons(id,code,discount_type,discount_value,expires_at)
	             VALUES('c-bad','BADDATE','percentage',5,'2025-12-31')`)

	_, _, err := couponSvc(db).Validate("BADDATE", d("100"))
	require.ErrorIs(t, err, services.ErrCouponExpired)
}

func TestValidateCouponExhausted(t *testing.T) {
	db := seededDB(t)
	db.MustExec(`INSERT INTO coupons(id,code,discount_type,discount_value,usage_limit,usage_count)
	             VALUES('c-last','LAST','fixed',10,3,3)`)

	_, _, err := couponSvc(db).Validate("LAST", d("100"))
	require.ErrorIs(t, err, services.ErrCouponExhausted)
}
