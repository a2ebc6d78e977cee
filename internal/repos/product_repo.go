package repos

import (
	"github.com/jmoiron/sqlx"

	"vitrine/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) Get(id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
		SELECT id, category_id, name, COALESCE(description,'') AS description,
		       price, COALESCE(image_url,'') AS image_url, active,
		       created_at, COALESCE(updated_at,'') AS updated_at
		FROM products
		WHERE id = ? AND active = 1
	`, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) Variants(productID string) ([]domain.Variant, error) {
	var out []domain.Variant
	err := r.db.Select(&out, `
		SELECT id, product_id, COALESCE(color_name,'') AS color_name,
		       COALESCE(image_url,'') AS image_url, stock
		FROM product_variants
		WHERE product_id = ?
		ORDER BY id
	`, productID)
	return out, err
}

func (r *ProductRepo) Variant(variantID string) (*domain.Variant, error) {
	var v domain.Variant
	err := r.db.Get(&v, `
		SELECT id, product_id, COALESCE(color_name,'') AS color_name,
		       COALESCE(image_url,'') AS image_url, stock
		FROM product_variants
		WHERE id = ?
	`, variantID)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListByCategory backs the SPA category pages; q is an optional name filter.
func (r *ProductRepo) ListByCategory(categoryID, q string) ([]domain.Product, error) {
	var out []domain.Product
	query := `
		SELECT id, category_id, name, COALESCE(description,'') AS description,
		       price, COALESCE(image_url,'') AS image_url, active,
		       created_at, COALESCE(updated_at,'') AS updated_at
		FROM products
		WHERE category_id = ? AND active = 1`
	args := []any{categoryID}
	if q != "" {
		query += ` AND LOWER(name) LIKE '%' || LOWER(?) || '%'`
		args = append(args, q)
	}
	query += ` ORDER BY created_at DESC`
	err := r.db.Select(&out, query, args...)
	return out, err
}

func (r *ProductRepo) Categories() ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.Select(&out, `
		SELECT id, name, created_at, COALESCE(updated_at,'') AS updated_at
		FROM categories
		ORDER BY name
	`)
	return out, err
}
