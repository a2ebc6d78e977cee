package services

import (
	"errors"

	"github.com/shopspring/decimal"

	"vitrine/internal/domain"
	"vitrine/internal/repos"
)

var ErrVariantMismatch = errors.New("variant does not belong to product")

// CartService is the single source of truth for a session's cart: an
// explicit mutation API over a persisted snapshot, which the checkout flow
// only ever reads.
type CartService struct {
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Carts: carts, Prods: prods}
}

func (s *CartService) Add(sessionID, productID, variantID, size string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	p, err := s.Prods.Get(productID)
	if err != nil {
		return err
	}
	line := domain.CartLine{
		ProductID: productID,
		VariantID: variantID,
		Size:      size,
		Name:      p.Name,
		ImageURL:  p.ImageURL,
		Price:     p.Price,
		Qty:       qty,
	}
	if variantID != "" {
		v, err := s.Prods.Variant(variantID)
		if err != nil {
			return err
		}
		if v.ProductID != productID {
			return ErrVariantMismatch
		}
		line.Color = v.ColorName
		if v.ImageURL != "" {
			line.ImageURL = v.ImageURL
		}
	}
	return s.Carts.UpsertLine(cartID, line)
}

func (s *CartService) SetQuantity(sessionID, productID, variantID, size string, qty int) error {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	return s.Carts.SetQty(cartID, productID, variantID, size, qty)
}

func (s *CartService) Remove(sessionID, productID, variantID, size string) error {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	return s.Carts.RemoveLine(cartID, productID, variantID, size)
}

func (s *CartService) Clear(sessionID string) error {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return err
	}
	return s.Carts.Clear(cartID)
}

type CartView struct {
	Lines    []domain.CartLine `json:"lines"`
	Subtotal decimal.Decimal   `json:"subtotal"`
}

func (s *CartService) View(sessionID string) (CartView, error) {
	lines, err := s.Lines(sessionID)
	if err != nil {
		return CartView{}, err
	}
	return CartView{Lines: lines, Subtotal: Subtotal(lines)}, nil
}

func (s *CartService) Lines(sessionID string) ([]domain.CartLine, error) {
	cartID, err := s.Carts.EnsureCart(sessionID)
	if err != nil {
		return nil, err
	}
	return s.Carts.Lines(cartID)
}
