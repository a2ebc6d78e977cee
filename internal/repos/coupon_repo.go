package repos

import (
	"github.com/jmoiron/sqlx"

	"vitrine/internal/domain"
)

type CouponRepo struct{ db *sqlx.DB }

func NewCouponRepo(db *sqlx.DB) *CouponRepo { return &CouponRepo{db: db} }

// ByCode looks a coupon up case-insensitively. Returns sql.ErrNoRows when
// no such code exists.
func (r *CouponRepo) ByCode(code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.Get(&c, `
		SELECT id, code, discount_type, discount_value, min_purchase,
		       usage_limit, usage_count, expires_at, active, created_at
		FROM coupons
		WHERE UPPER(code) = UPPER(?)
	`, code)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ConsumeUse increments usage_count if and only if the coupon is still
// active, unexpired and under its limit. Returns false when the guard
// fails, i.e. the coupon was consumed or invalidated since validation.
func (r *CouponRepo) ConsumeUse(e sqlx.Ext, id, now string) (bool, error) {
	res, err := e.Exec(`
		UPDATE coupons
		SET usage_count = usage_count + 1
		WHERE id = ?
		  AND active = 1
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
		  AND (expires_at IS NULL OR expires_at > ?)
	`, id, now)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ---------- Admin CRUD ----------

func (r *CouponRepo) List() ([]domain.Coupon, error) {
	var out []domain.Coupon
	err := r.db.Select(&out, `
		SELECT id, code, discount_type, discount_value, min_purchase,
		       usage_limit, usage_count, expires_at, active, created_at
		FROM coupons
		ORDER BY created_at DESC
	`)
	return out, err
}

func (r *CouponRepo) Create(c *domain.Coupon) error {
	_, err := r.db.Exec(`
		INSERT INTO coupons(id, code, discount_type, discount_value, min_purchase,
		                    usage_limit, usage_count, expires_at, active)
		VALUES(?, UPPER(?), ?, ?, ?, ?, 0, ?, ?)
	`, c.ID, c.Code, c.DiscountType, c.DiscountValue, c.MinPurchase,
		c.UsageLimit, c.ExpiresAt, c.Active)
	return err
}

func (r *CouponRepo) Update(c *domain.Coupon) error {
	_, err := r.db.Exec(`
		UPDATE coupons
		SET code = UPPER(?), discount_type = ?, discount_value = ?, min_purchase = ?,
		    usage_limit = ?, expires_at = ?, active = ?
		WHERE id = ?
	`, c.Code, c.DiscountType, c.DiscountValue, c.MinPurchase,
		c.UsageLimit, c.ExpiresAt, c.Active, c.ID)
	return err
}

func (r *CouponRepo) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM coupons WHERE id = ?`, id)
	return err
}
