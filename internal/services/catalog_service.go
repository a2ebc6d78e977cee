package services

import (
	"database/sql"

	"vitrine/internal/domain"
	"vitrine/internal/repos"
)

type CatalogService struct {
	Prods *repos.ProductRepo
	Stock *repos.StockRepo
}

func NewCatalogService(prods *repos.ProductRepo, stock *repos.StockRepo) *CatalogService {
	return &CatalogService{Prods: prods, Stock: stock}
}

type ProductDetail struct {
	Product  domain.Product               `json:"product"`
	Variants []domain.Variant             `json:"variants"`
	Sizes    map[string][]domain.SizeStock `json:"sizes,omitempty"` // variant id -> per-size rows
}

func (s *CatalogService) ProductDetail(id string) (*ProductDetail, error) {
	p, err := s.Prods.Get(id)
	if err != nil {
		return nil, err
	}
	variants, err := s.Prods.Variants(id)
	if err != nil {
		return nil, err
	}
	d := &ProductDetail{Product: *p, Variants: variants}
	for _, v := range variants {
		rows, err := s.Stock.Sizes(v.ID)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			if d.Sizes == nil {
				d.Sizes = make(map[string][]domain.SizeStock)
			}
			d.Sizes[v.ID] = rows
		}
	}
	return d, nil
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}

// CheckAvailability converts a variant's (optionally per-size) stock into a
// coarse status for the product page.
func (s *CatalogService) CheckAvailability(variantID, size string) (Availability, error) {
	var qty int
	var err error
	if size != "" {
		qty, err = s.Stock.SizeStock(variantID, size)
	} else {
		qty, err = s.Stock.VariantStock(variantID)
	}
	if err != nil {
		// No row means nothing to sell.
		if err == sql.ErrNoRows {
			return Availability{Status: "OUT_OF_STOCK", Qty: 0}, nil
		}
		return Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= 5:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return Availability{Status: status, Qty: qty}, nil
}
