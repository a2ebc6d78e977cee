package services

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"vitrine/internal/domain"
	"vitrine/internal/shipping"
)

// Checkout steps, in strict forward order. Transitions only ever move one
// step at a time; each forward move has a guard, backward moves never lose
// data.
type CheckoutStep int

const (
	StepSummary CheckoutStep = iota + 1
	StepIdentification
	StepDelivery
	StepPayment
)

func (s CheckoutStep) String() string {
	switch s {
	case StepSummary:
		return "summary"
	case StepIdentification:
		return "identification"
	case StepDelivery:
		return "delivery"
	case StepPayment:
		return "payment"
	}
	return "unknown"
}

var (
	ErrCartEmpty          = errors.New("cart is empty")
	ErrWrongStep          = errors.New("operation not allowed at this step")
	ErrIncompleteAddress  = errors.New("address is incomplete")
	ErrNoShippingSelected = errors.New("no shipping option selected")
	ErrUnknownShipping    = errors.New("shipping option not among quoted ones")
)

// Identity is the authenticated shopper driving the checkout.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// CheckoutFlow is the accumulated state of one checkout session. It lives
// only until order placement succeeds or the session abandons it.
type CheckoutFlow struct {
	// mu serializes mutations from concurrent requests on the same session;
	// the service locks it around every transition.
	mu sync.Mutex

	Step     CheckoutStep      `json:"step"`
	Lines    []domain.CartLine `json:"lines"`
	Identity *Identity         `json:"identity,omitempty"`
	Address  *domain.Address   `json:"address,omitempty"`

	// Shipping quotes cached for the CEP they were fetched for; refreshed
	// whenever the CEP changes.
	QuotedCEP string            `json:"quoted_cep,omitempty"`
	Options   []shipping.Option `json:"options,omitempty"`
	Selected  *shipping.Option  `json:"selected,omitempty"`

	Coupon *domain.Coupon `json:"coupon,omitempty"`
}

// newCheckoutFlow starts at Summary; the flow does not start on an empty cart.
func newCheckoutFlow(lines []domain.CartLine) (*CheckoutFlow, error) {
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}
	return &CheckoutFlow{Step: StepSummary, Lines: lines}, nil
}

func (f *CheckoutFlow) confirmSummary() error {
	if f.Step != StepSummary {
		return ErrWrongStep
	}
	f.Step = StepIdentification
	return nil
}

// identify records the authenticated shopper and an optional saved address
// used to pre-fill the Delivery step.
func (f *CheckoutFlow) identify(id Identity, saved *domain.Address) error {
	if f.Step != StepIdentification {
		return ErrWrongStep
	}
	f.Identity = &id
	if saved != nil && saved.ZipCode != "" {
		f.Address = saved
	}
	f.Step = StepDelivery
	return nil
}

func addressComplete(a domain.Address) bool {
	return a.FullName != "" && a.ZipCode != "" && a.Street != "" && a.Number != "" &&
		a.Neighborhood != "" && a.City != "" && a.State != ""
}

// setDelivery stores the address and the chosen shipping option. The option
// must be one of the quoted ones for the current CEP.
func (f *CheckoutFlow) setDelivery(a domain.Address, optionID string) error {
	if f.Step != StepDelivery {
		return ErrWrongStep
	}
	if !addressComplete(a) {
		return ErrIncompleteAddress
	}
	if optionID == "" {
		return ErrNoShippingSelected
	}
	for i := range f.Options {
		if f.Options[i].ID == optionID {
			opt := f.Options[i]
			f.Address = &a
			f.Selected = &opt
			f.Step = StepPayment
			return nil
		}
	}
	return ErrUnknownShipping
}

func (f *CheckoutFlow) applyCoupon(c *domain.Coupon) error {
	if f.Step != StepPayment {
		return ErrWrongStep
	}
	f.Coupon = c
	return nil
}

func (f *CheckoutFlow) removeCoupon() error {
	if f.Step != StepPayment {
		return ErrWrongStep
	}
	f.Coupon = nil
	return nil
}

// back returns to the previous step without discarding anything entered so
// far. There is no skip-ahead: moving forward again passes the guards.
func (f *CheckoutFlow) back() {
	if f.Step > StepSummary {
		f.Step--
	}
}

// ---------- Running totals (Pricing Engine over current state) ----------

func (f *CheckoutFlow) Subtotal() decimal.Decimal {
	return Subtotal(f.Lines)
}

func (f *CheckoutFlow) ShippingCost() decimal.Decimal {
	if f.Selected == nil {
		return decimal.Zero
	}
	return f.Selected.Price
}

func (f *CheckoutFlow) Discount() decimal.Decimal {
	return Discount(f.Coupon, f.Subtotal())
}

func (f *CheckoutFlow) Total() decimal.Decimal {
	return Total(f.Subtotal(), f.ShippingCost(), f.Discount())
}
