package payments

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestBuildItemsMirrorsPricing(t *testing.T) {
	items := buildItems(PreferenceRequest{
		OrderID: "ord-1",
		Items: []LineItem{
			{ID: "p-1", Title: "Tênis Nova Runner", Price: d("299.90"), Quantity: 2},
		},
		ShippingCost:   d("25"),
		ShippingLabel:  "PAC (Econômico)",
		DiscountAmount: d("20"),
	})

	require.Len(t, items, 3)
	require.Equal(t, "p-1", items[0].ID)
	require.Equal(t, 2, items[0].Quantity)
	require.Equal(t, "BRL", items[0].CurrencyID)

	require.Equal(t, "shipt-001", items[1].ID)
	require.Equal(t, "Frete: PAC (Econômico)", items[1].Title)
	require.Equal(t, 25.0, items[1].UnitPrice)

	// the discount rides along as a negative line so the hosted total matches
	require.Equal(t, "discount-001", items[2].ID)
	require.Equal(t, "Cupom de Desconto Aplicado", items[2].Title)
	require.Equal(t, -20.0, items[2].UnitPrice)
}

func TestBuildItemsSkipsZeroLines(t *testing.T) {
	items := buildItems(PreferenceRequest{
		Items: []LineItem{{ID: "p-1", Title: "Boné", Price: d("59.90"), Quantity: 1}},
	})
	require.Len(t, items, 1, "no shipping or discount lines at zero")
}

func TestNewMercadoPagoRequiresToken(t *testing.T) {
	_, err := NewMercadoPago("", "http://localhost:8080")
	require.Error(t, err)
}
