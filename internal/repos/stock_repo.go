package repos

import (
	"github.com/jmoiron/sqlx"

	"vitrine/internal/domain"
)

type StockRepo struct{ db *sqlx.DB }

func NewStockRepo(db *sqlx.DB) *StockRepo { return &StockRepo{db: db} }

// VariantStock returns current stock for a variant.
// If no row exists, it returns sql.ErrNoRows from sqlx.Get.
func (r *StockRepo) VariantStock(variantID string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `SELECT stock FROM product_variants WHERE id = ?`, variantID)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

func (r *StockRepo) SizeStock(variantID, size string) (int, error) {
	var qty int
	err := r.db.Get(&qty, `
		SELECT quantity FROM product_stock WHERE variant_id = ? AND size = ?
	`, variantID, size)
	if err != nil {
		return 0, err
	}
	return qty, nil
}

// DecrementVariant subtracts "by" units, floored at zero. The MAX() runs in
// a single UPDATE so concurrent checkouts never read-then-write stale stock;
// two buyers of the last unit both land on zero (documented oversell window).
func (r *StockRepo) DecrementVariant(e sqlx.Ext, variantID string, by int) error {
	_, err := e.Exec(`
		UPDATE product_variants SET stock = MAX(0, stock - ?) WHERE id = ?
	`, by, variantID)
	return err
}

// DecrementSize is the per-size equivalent for apparel lines.
func (r *StockRepo) DecrementSize(e sqlx.Ext, variantID, size string, by int) error {
	_, err := e.Exec(`
		UPDATE product_stock SET quantity = MAX(0, quantity - ?)
		WHERE variant_id = ? AND size = ?
	`, by, variantID, size)
	return err
}

// Sizes lists per-size stock rows for a variant (availability API).
func (r *StockRepo) Sizes(variantID string) ([]domain.SizeStock, error) {
	var out []domain.SizeStock
	err := r.db.Select(&out, `
		SELECT id, variant_id, size, quantity
		FROM product_stock
		WHERE variant_id = ?
		ORDER BY size
	`, variantID)
	return out, err
}

// UpsertSize sets quantity for (variant, size), creating the row if needed.
func (r *StockRepo) UpsertSize(id, variantID, size string, qty int) error {
	_, err := r.db.Exec(`
		INSERT INTO product_stock(id, variant_id, size, quantity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(variant_id, size) DO UPDATE SET quantity = excluded.quantity
	`, id, variantID, size, qty)
	return err
}

func (r *StockRepo) SetVariantStock(variantID string, qty int) error {
	_, err := r.db.Exec(`UPDATE product_variants SET stock = ? WHERE id = ?`, qty, variantID)
	return err
}
