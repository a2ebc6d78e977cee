package repos

import (
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"vitrine/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// ---------- Admin list summary ----------
type OrderSummary struct {
	ID            string          `db:"id"`
	CustomerName  string          `db:"customer_name"`
	CustomerEmail string          `db:"customer_email"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	Status        string          `db:"status"`
	CreatedAt     string          `db:"created_at"`
}

// Insert writes a new order header. Runs inside the placement transaction.
func (r *OrderRepo) Insert(e sqlx.Ext, o *domain.Order) error {
	_, err := e.Exec(`
	  INSERT INTO orders
	    (id, customer_email, customer_name, customer_address,
	     subtotal, discount, coupon_code, shipping_method, shipping_cost,
	     total_amount, status, created_at)
	  VALUES
	    (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', CURRENT_TIMESTAMP)
	`, o.ID, o.CustomerEmail, o.CustomerName, o.CustomerAddress,
		o.Subtotal, o.Discount, o.CouponCode, o.ShippingMethod, o.ShippingCost,
		o.TotalAmount)
	return err
}

// InsertLine writes a single line item with its name/price snapshot.
func (r *OrderRepo) InsertLine(e sqlx.Ext, l *domain.OrderLine) error {
	_, err := e.Exec(`
	  INSERT INTO order_items(order_id, product_id, variant_id, size, product_name, qty, price)
	  VALUES(?, ?, ?, ?, ?, ?, ?)
	`, l.OrderID, l.ProductID, l.VariantID, l.Size, l.ProductName, l.Qty, l.Price)
	return err
}

func (r *OrderRepo) Get(orderID string) (domain.Order, []domain.OrderLine, error) {
	var o domain.Order
	if err := r.db.Get(&o, `SELECT * FROM orders WHERE id = ?`, orderID); err != nil {
		return domain.Order{}, nil, err
	}
	var lines []domain.OrderLine
	if err := r.db.Select(&lines, `
		SELECT order_id, product_id, variant_id, size, product_name, qty, price
		FROM order_items
		WHERE order_id = ?
		ORDER BY product_name
	`, orderID); err != nil {
		return domain.Order{}, nil, err
	}
	return o, lines, nil
}

// MarkPaid applies an approved payment notification. A plain overwrite:
// replaying the same notification writes identical values, so the handler
// stays idempotent without a dedup table.
func (r *OrderRepo) MarkPaid(orderID, paymentID, method string, installments int, installmentAmount decimal.Decimal) error {
	_, err := r.db.Exec(`
		UPDATE orders
		SET status = 'paid', payment_id = ?, payment_method = ?,
		    installments = ?, installment_amount = ?
		WHERE id = ?
	`, paymentID, method, installments, installmentAmount, orderID)
	return err
}

func (r *OrderRepo) ListLatest(limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT id, customer_name, customer_email, total_amount, status, created_at
		FROM orders
		ORDER BY datetime(created_at) DESC
		LIMIT ?
	`, limit)
	return out, err
}

func (r *OrderRepo) ListByEmail(email string) ([]OrderSummary, error) {
	var out []OrderSummary
	err := r.db.Select(&out, `
		SELECT id, customer_name, customer_email, total_amount, status, created_at
		FROM orders
		WHERE LOWER(customer_email) = LOWER(?)
		ORDER BY datetime(created_at) DESC
	`, email)
	return out, err
}

// UpdateStatus is the admin-side transition; tracking code optional.
func (r *OrderRepo) UpdateStatus(id, status string, trackingCode *string) error {
	if trackingCode != nil {
		_, err := r.db.Exec(`UPDATE orders SET status = ?, tracking_code = ? WHERE id = ?`, status, trackingCode, id)
		return err
	}
	_, err := r.db.Exec(`UPDATE orders SET status = ? WHERE id = ?`, status, id)
	return err
}

// ---------- Dashboard aggregates ----------
type SalesStats struct {
	Orders  int             `db:"orders"`
	Paid    int             `db:"paid"`
	Pending int             `db:"pending"`
	Revenue decimal.Decimal `db:"revenue"`
}

func (r *OrderRepo) Stats() (SalesStats, error) {
	var s SalesStats
	err := r.db.Get(&s, `
		SELECT COUNT(*) AS orders,
		       COALESCE(SUM(CASE WHEN status IN ('paid','shipped','delivered') THEN 1 ELSE 0 END), 0) AS paid,
		       COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
		       COALESCE(SUM(CASE WHEN status IN ('paid','shipped','delivered') THEN total_amount ELSE 0 END), 0) AS revenue
		FROM orders
	`)
	return s, err
}
