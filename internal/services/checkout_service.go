package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vitrine/internal/domain"
	"vitrine/internal/repos"
	"vitrine/internal/shipping"
)

var ErrNoActiveCheckout = errors.New("no active checkout for this session")

// CheckoutService drives the four-step flow. Flows are ephemeral, keyed by
// session id and held in-process; the durable state (cart, customer profile,
// abandoned-cart marker) lives in the store.
type CheckoutService struct {
	mu    sync.RWMutex
	flows map[string]*CheckoutFlow

	Carts     *CartService
	Auth      *AuthService
	Coupons   *CouponService
	Customers *repos.CustomerRepo
	CartRepo  *repos.CartRepo
	Quotes    shipping.Provider
}

func NewCheckoutService(carts *CartService, auth *AuthService, coupons *CouponService,
	customers *repos.CustomerRepo, cartRepo *repos.CartRepo, quotes shipping.Provider) *CheckoutService {
	return &CheckoutService{
		flows:     make(map[string]*CheckoutFlow),
		Carts:     carts,
		Auth:      auth,
		Coupons:   coupons,
		Customers: customers,
		CartRepo:  cartRepo,
		Quotes:    quotes,
	}
}

// Begin snapshots the session cart into a new flow at the Summary step.
// Re-entering checkout restarts from a fresh snapshot.
func (s *CheckoutService) Begin(sid string) (*CheckoutFlow, error) {
	lines, err := s.Carts.Lines(sid)
	if err != nil {
		return nil, err
	}
	f, err := newCheckoutFlow(lines)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.flows[sid] = f
	s.mu.Unlock()
	return f, nil
}

func (s *CheckoutService) Flow(sid string) (*CheckoutFlow, error) {
	s.mu.RLock()
	f, ok := s.flows[sid]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoActiveCheckout
	}
	return f, nil
}

func (s *CheckoutService) ConfirmSummary(sid string) (*CheckoutFlow, error) {
	f, err := s.Flow(sid)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.confirmSummary(); err != nil {
		return nil, err
	}
	return f, nil
}

// Identify signs the shopper in (or registers them), upserts the
// abandoned-cart marker for their email, and pre-fills the saved address.
func (s *CheckoutService) Identify(sid, email, password string, register bool, name string) (*CheckoutFlow, error) {
	f, err := s.Flow(sid)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Step != StepIdentification {
		return nil, ErrWrongStep
	}

	var u *domain.User
	if register {
		u, err = s.Auth.Register(sid, email, name, password)
	} else {
		u, err = s.Auth.Login(sid, email, password)
	}
	if err != nil {
		return nil, err
	}

	// Recovery marker: snapshot of what they were about to buy.
	if b, err := json.Marshal(f.Lines); err == nil {
		if err := s.CartRepo.UpsertAbandoned(u.Email, string(b), f.Subtotal()); err != nil {
			return nil, err
		}
	}

	var saved *domain.Address
	if c, err := s.Customers.ByEmail(u.Email); err == nil {
		saved = &c.Address
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if err := f.identify(Identity{UserID: u.ID, Email: u.Email, Name: u.Name}, saved); err != nil {
		return nil, err
	}
	return f, nil
}

// QuoteShipping (re)fetches options when the CEP changed or none are cached.
func (s *CheckoutService) QuoteShipping(sid, cep string) ([]shipping.Option, error) {
	f, err := s.Flow(sid)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Step != StepDelivery {
		return nil, ErrWrongStep
	}
	if cep == f.QuotedCEP && len(f.Options) > 0 {
		return f.Options, nil
	}
	opts, err := s.Quotes.Quote(cep)
	if err != nil {
		return nil, err
	}
	f.QuotedCEP = cep
	f.Options = opts
	f.Selected = nil // stale selection does not survive a requote
	return opts, nil
}

// SetDelivery validates the address + selection and saves the address to the
// shopper's profile before advancing to Payment.
func (s *CheckoutService) SetDelivery(sid string, a domain.Address, optionID string) (*CheckoutFlow, error) {
	f, err := s.Flow(sid)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.setDelivery(a, optionID); err != nil {
		return nil, err
	}
	if f.Identity != nil {
		if err := s.Customers.UpsertAddress(uuid.NewString(), f.Identity.UserID, f.Identity.Email, a); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// ApplyCoupon validates and attaches one coupon, returning the resolved
// discount for immediate display. Validation consumes nothing.
func (s *CheckoutService) ApplyCoupon(sid, code string) (*CheckoutFlow, decimal.Decimal, error) {
	f, err := s.Flow(sid)
	if err != nil {
		return nil, decimal.Zero, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Step != StepPayment {
		return nil, decimal.Zero, ErrWrongStep
	}
	c, discount, err := s.Coupons.Validate(code, f.Subtotal())
	if err != nil {
		return nil, decimal.Zero, err
	}
	if err := f.applyCoupon(c); err != nil {
		return nil, decimal.Zero, err
	}
	return f, discount, nil
}

func (s *CheckoutService) RemoveCoupon(sid string) (*CheckoutFlow, error) {
	f, err := s.Flow(sid)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.removeCoupon(); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *CheckoutService) Back(sid string) (*CheckoutFlow, error) {
	f, err := s.Flow(sid)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.back()
	return f, nil
}

// Abandon drops the flow. The cart and any abandoned-cart marker stay put.
func (s *CheckoutService) Abandon(sid string) {
	s.mu.Lock()
	delete(s.flows, sid)
	s.mu.Unlock()
}

// Finish clears the session cart and drops the flow after a successful
// placement.
func (s *CheckoutService) Finish(sid string) {
	_ = s.Carts.Clear(sid)
	s.Abandon(sid)
}
