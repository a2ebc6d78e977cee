package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vitrine/internal/domain"
	"vitrine/internal/payments"
	"vitrine/internal/repos"
)

var (
	ErrCheckoutIncomplete = errors.New("checkout context is incomplete")
	// ErrCouponConsumed means the coupon passed validation earlier but was
	// exhausted or invalidated before placement; the order is not created.
	ErrCouponConsumed = errors.New("coupon is no longer valid")
)

type OrderService struct {
	DB      *sqlx.DB
	Orders  *repos.OrderRepo
	Stock   *repos.StockRepo
	Coupons *repos.CouponRepo
	Carts   *repos.CartRepo
	Gateway payments.Gateway
}

func NewOrderService(db *sqlx.DB, orders *repos.OrderRepo, stock *repos.StockRepo,
	coupons *repos.CouponRepo, carts *repos.CartRepo, gw payments.Gateway) *OrderService {
	return &OrderService{DB: db, Orders: orders, Stock: stock, Coupons: coupons, Carts: carts, Gateway: gw}
}

type PlacedOrder struct {
	Order       domain.Order
	RedirectURL string
}

func formatAddress(a domain.Address) string {
	s := fmt.Sprintf("%s, %s", a.Street, a.Number)
	if a.Complement != "" {
		s += " (" + a.Complement + ")"
	}
	return fmt.Sprintf("%s - %s, %s/%s - CEP: %s", s, a.Neighborhood, a.City, a.State, a.ZipCode)
}

// Place turns a fully satisfied checkout flow into a persisted order.
//
// The store writes (header, lines, stock decrements, coupon usage,
// abandoned-cart recovery) commit in one transaction. The payment
// preference call happens after commit: if it fails the order stays in
// 'pending' with its side effects intact — an operationally recoverable
// state surfaced to the caller, not rolled back.
func (s *OrderService) Place(ctx context.Context, f *CheckoutFlow) (*PlacedOrder, error) {
	if f == nil || f.Step != StepPayment || f.Identity == nil || f.Address == nil || f.Selected == nil || len(f.Lines) == 0 {
		return nil, ErrCheckoutIncomplete
	}

	subtotal := f.Subtotal()
	discount := f.Discount()
	shippingCost := f.ShippingCost()
	total := Total(subtotal, shippingCost, discount)

	order := domain.Order{
		ID:              uuid.NewString(),
		CustomerEmail:   f.Identity.Email,
		CustomerName:    f.Address.FullName,
		CustomerAddress: formatAddress(*f.Address),
		Subtotal:        subtotal,
		Discount:        discount,
		ShippingMethod:  f.Selected.Name,
		ShippingCost:    shippingCost,
		TotalAmount:     total,
		Status:          domain.OrderPending,
	}
	if f.Coupon != nil {
		code := f.Coupon.Code
		order.CouponCode = &code
	}

	tx, err := s.DB.Beginx()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.Orders.Insert(tx, &order); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, l := range f.Lines {
		line := domain.OrderLine{
			OrderID:     order.ID,
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Qty:         l.Qty,
			Price:       l.Price,
		}
		if l.VariantID != "" {
			v := l.VariantID
			line.VariantID = &v
		}
		if l.Size != "" {
			sz := l.Size
			line.Size = &sz
		}
		if err := s.Orders.InsertLine(tx, &line); err != nil {
			return nil, fmt.Errorf("insert order line: %w", err)
		}
	}

	for _, l := range f.Lines {
		if l.VariantID == "" {
			continue
		}
		if err := s.Stock.DecrementVariant(tx, l.VariantID, l.Qty); err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if l.Size != "" {
			if err := s.Stock.DecrementSize(tx, l.VariantID, l.Size, l.Qty); err != nil {
				return nil, fmt.Errorf("decrement size stock: %w", err)
			}
		}
	}

	if f.Coupon != nil {
		// Re-validates limit/expiry atomically with the increment, so two
		// simultaneous checkouts cannot both consume the last allowed use.
		ok, err := s.Coupons.ConsumeUse(tx, f.Coupon.ID, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return nil, fmt.Errorf("consume coupon: %w", err)
		}
		if !ok {
			return nil, ErrCouponConsumed
		}
	}

	if err := s.Carts.MarkRecovered(tx, f.Identity.Email); err != nil {
		return nil, fmt.Errorf("mark cart recovered: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	items := make([]payments.LineItem, 0, len(f.Lines))
	for _, l := range f.Lines {
		items = append(items, payments.LineItem{
			ID:       l.ProductID,
			Title:    l.Name,
			Price:    l.Price,
			Quantity: l.Qty,
		})
	}
	pref, err := s.Gateway.CreatePreference(ctx, payments.PreferenceRequest{
		OrderID:        order.ID,
		PayerEmail:     f.Identity.Email,
		Items:          items,
		ShippingCost:   shippingCost,
		ShippingLabel:  f.Selected.Name,
		DiscountAmount: discount,
	})
	if err != nil {
		return &PlacedOrder{Order: order}, fmt.Errorf("payment preference for order %s: %w", order.ID, err)
	}

	return &PlacedOrder{Order: order, RedirectURL: pref.RedirectURL}, nil
}
