package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

// LineItem is one cart line forwarded to the processor's hosted checkout.
type LineItem struct {
	ID       string
	Title    string
	Price    decimal.Decimal
	Quantity int
}

// PreferenceRequest carries everything the processor needs to display a
// total that matches the internally computed one: per-line items plus a
// synthetic shipping line and a synthetic negative discount line.
type PreferenceRequest struct {
	OrderID        string
	PayerEmail     string
	Items          []LineItem
	ShippingCost   decimal.Decimal
	ShippingLabel  string
	DiscountAmount decimal.Decimal
}

// Preference is the hosted-checkout session created with the processor.
type Preference struct {
	ID          string
	RedirectURL string
}

// PaymentInfo is the authoritative payment record re-fetched from the
// processor during webhook reconciliation; never sourced from the webhook
// payload itself.
type PaymentInfo struct {
	ID                string
	Status            string // "approved", "pending", "rejected", ...
	OrderID           string // the external reference we set at preference time
	Method            string // "pix", "master", ...
	Installments      int
	InstallmentAmount decimal.Decimal
}

const StatusApproved = "approved"

// Gateway abstracts the external payment processor so checkout and webhook
// logic never touch the SDK directly.
type Gateway interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	PaymentByID(ctx context.Context, paymentID string) (*PaymentInfo, error)
}
