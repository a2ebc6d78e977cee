package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

type Product struct {
	ID          string          `db:"id" json:"id"`
	CategoryID  string          `db:"category_id" json:"category_id"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	ImageURL    string          `db:"image_url" json:"image_url,omitempty"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at,omitempty"`
}

// Variant is a purchasable option of a product (a color), with its own
// stock and optional image. Apparel variants additionally track stock per
// size in product_stock rows.
type Variant struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"product_id"`
	ColorName string `db:"color_name" json:"color_name,omitempty"`
	ImageURL  string `db:"image_url" json:"image_url,omitempty"`
	Stock     int    `db:"stock" json:"stock"`
}

type SizeStock struct {
	ID        string `db:"id" json:"id"`
	VariantID string `db:"variant_id" json:"variant_id"`
	Size      string `db:"size" json:"size"`
	Quantity  int    `db:"quantity" json:"quantity"`
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Coupon struct {
	ID            string          `db:"id" json:"id"`
	Code          string          `db:"code" json:"code"` // stored uppercase
	DiscountType  string          `db:"discount_type" json:"discount_type"`
	DiscountValue decimal.Decimal `db:"discount_value" json:"discount_value"`
	MinPurchase   decimal.Decimal `db:"min_purchase" json:"min_purchase"`
	UsageLimit    *int            `db:"usage_limit" json:"usage_limit,omitempty"` // nil = unlimited
	UsageCount    int             `db:"usage_count" json:"usage_count"`
	ExpiresAt     *string         `db:"expires_at" json:"expires_at,omitempty"` // RFC3339, nil = never
	Active        bool            `db:"active" json:"active"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
}

// CartLine is one entry of a shopper's cart, keyed by product+variant+size.
type CartLine struct {
	ProductID string          `db:"product_id" json:"product_id"`
	VariantID string          `db:"variant_id" json:"variant_id,omitempty"` // empty for products without variants
	Size      string          `db:"size" json:"size,omitempty"`             // empty for non-apparel
	Name      string          `db:"name" json:"name"`
	Color     string          `db:"color" json:"color,omitempty"`
	ImageURL  string          `db:"image_url" json:"image_url,omitempty"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Qty       int             `db:"qty" json:"qty"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Address is the delivery destination collected at the Delivery step.
type Address struct {
	FullName     string `db:"name" json:"full_name"`
	ZipCode      string `db:"zip_code" json:"zip_code"`
	Street       string `db:"street" json:"street"`
	Number       string `db:"number" json:"number"`
	Complement   string `db:"complement" json:"complement,omitempty"`
	Neighborhood string `db:"neighborhood" json:"neighborhood"`
	City         string `db:"city" json:"city"`
	State        string `db:"state" json:"state"`
}

type Customer struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id,omitempty"`
	Email  string `db:"email" json:"email"`
	Address
	CreatedAt string `db:"created_at" json:"created_at"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

// Order statuses. Webhook reconciliation only ever moves pending -> paid;
// the rest are admin-driven.
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCanceled  = "canceled"
)

type Order struct {
	ID                string              `db:"id" json:"id"`
	CustomerEmail     string              `db:"customer_email" json:"customer_email"`
	CustomerName      string              `db:"customer_name" json:"customer_name"`
	CustomerAddress   string              `db:"customer_address" json:"customer_address"` // formatted snapshot
	Subtotal          decimal.Decimal     `db:"subtotal" json:"subtotal"`
	Discount          decimal.Decimal     `db:"discount" json:"discount"`
	CouponCode        *string             `db:"coupon_code" json:"coupon_code,omitempty"`
	ShippingMethod    string              `db:"shipping_method" json:"shipping_method"`
	ShippingCost      decimal.Decimal     `db:"shipping_cost" json:"shipping_cost"`
	TotalAmount       decimal.Decimal     `db:"total_amount" json:"total_amount"`
	Status            string              `db:"status" json:"status"`
	PaymentID         *string             `db:"payment_id" json:"payment_id,omitempty"`
	PaymentMethod     *string             `db:"payment_method" json:"payment_method,omitempty"`
	Installments      *int                `db:"installments" json:"installments,omitempty"`
	InstallmentAmount decimal.NullDecimal `db:"installment_amount" json:"installment_amount,omitempty"`
	TrackingCode      *string             `db:"tracking_code" json:"tracking_code,omitempty"`
	CreatedAt         string              `db:"created_at" json:"created_at"`
}

// OrderLine snapshots name and unit price at purchase time; never mutated.
type OrderLine struct {
	OrderID     string          `db:"order_id" json:"order_id"`
	ProductID   string          `db:"product_id" json:"product_id"`
	VariantID   *string         `db:"variant_id" json:"variant_id,omitempty"`
	Size        *string         `db:"size" json:"size,omitempty"`
	ProductName string          `db:"product_name" json:"product_name"`
	Qty         int             `db:"qty" json:"qty"`
	Price       decimal.Decimal `db:"price" json:"price"`
}

const (
	CartAbandoned = "abandoned"
	CartRecovered = "recovered"
)

// AbandonedCart marks a recoverable lost sale, keyed by shopper email.
type AbandonedCart struct {
	Email       string          `db:"email" json:"email"`
	ItemsJSON   string          `db:"items_json" json:"items_json"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status      string          `db:"status" json:"status"`
	UpdatedAt   string          `db:"updated_at" json:"updated_at"`
}

type StoreSettings struct {
	StoreName       string `db:"store_name" json:"store_name"`
	MaintenanceMode bool   `db:"maintenance_mode" json:"maintenance_mode"`
	UpdatedAt       string `db:"updated_at" json:"updated_at,omitempty"`
}
