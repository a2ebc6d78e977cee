package repos

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"vitrine/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

func (r *CartRepo) EnsureCart(sessionID string) (string, error) {
	var cartID string
	if err := r.db.Get(&cartID, `SELECT id FROM carts WHERE session_id = ?`, sessionID); err == nil {
		return cartID, nil
	}
	_, err := r.db.Exec(`INSERT INTO carts(id,session_id,updated_at) VALUES(?,?,?)`,
		sessionID, sessionID, time.Now().Format(time.RFC3339))
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

// UpsertLine adds a line or bumps quantity if the same product+variant+size
// is already in the cart.
func (r *CartRepo) UpsertLine(cartID string, l domain.CartLine) error {
	_, err := r.db.Exec(`
		INSERT INTO cart_items(cart_id,product_id,variant_id,size,name,color,image_url,qty,price,created_at)
		VALUES(?,?,?,?,?,?,?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(cart_id,product_id,variant_id,size) DO UPDATE
		SET qty = cart_items.qty + excluded.qty, updated_at = CURRENT_TIMESTAMP
	`, cartID, l.ProductID, l.VariantID, l.Size, l.Name, l.Color, l.ImageURL, l.Qty, l.Price)
	return err
}

// SetQty overwrites a line's quantity, floored at 1.
func (r *CartRepo) SetQty(cartID, productID, variantID, size string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	_, err := r.db.Exec(`
		UPDATE cart_items SET qty = ?, updated_at = CURRENT_TIMESTAMP
		WHERE cart_id = ? AND product_id = ? AND variant_id = ? AND size = ?
	`, qty, cartID, productID, variantID, size)
	return err
}

func (r *CartRepo) RemoveLine(cartID, productID, variantID, size string) error {
	_, err := r.db.Exec(`
		DELETE FROM cart_items
		WHERE cart_id = ? AND product_id = ? AND variant_id = ? AND size = ?
	`, cartID, productID, variantID, size)
	return err
}

func (r *CartRepo) Lines(cartID string) ([]domain.CartLine, error) {
	var out []domain.CartLine
	err := r.db.Select(&out, `
	  SELECT product_id, variant_id, size, name, color, image_url, qty, price
	  FROM cart_items
	  WHERE cart_id = ?
	  ORDER BY created_at
	`, cartID)
	return out, err
}

func (r *CartRepo) Clear(cartID string) error {
	_, err := r.db.Exec(`DELETE FROM cart_items WHERE cart_id = ?`, cartID)
	return err
}

// ---------- Abandoned-cart recovery markers ----------

// UpsertAbandoned snapshots the cart under the shopper's email at
// identification time. Re-identifying refreshes the snapshot.
func (r *CartRepo) UpsertAbandoned(email, itemsJSON string, total decimal.Decimal) error {
	_, err := r.db.Exec(`
		INSERT INTO abandoned_carts(email, items_json, total_amount, status, updated_at)
		VALUES(?, ?, ?, 'abandoned', CURRENT_TIMESTAMP)
		ON CONFLICT(email) DO UPDATE
		SET items_json = excluded.items_json, total_amount = excluded.total_amount,
		    status = 'abandoned', updated_at = CURRENT_TIMESTAMP
	`, email, itemsJSON, total)
	return err
}

// MarkRecovered clears the marker once the order is placed.
func (r *CartRepo) MarkRecovered(e sqlx.Ext, email string) error {
	_, err := e.Exec(`
		UPDATE abandoned_carts SET status = 'recovered', updated_at = CURRENT_TIMESTAMP
		WHERE email = ?
	`, email)
	return err
}

func (r *CartRepo) ListAbandoned() ([]domain.AbandonedCart, error) {
	var out []domain.AbandonedCart
	err := r.db.Select(&out, `
		SELECT email, items_json, total_amount, status, updated_at
		FROM abandoned_carts
		ORDER BY updated_at DESC
	`)
	return out, err
}
