package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
	"github.com/shopspring/decimal"
)

const currencyID = "BRL"

type preferenceAPI interface {
	Create(ctx context.Context, request preference.Request) (*preference.Response, error)
}

type paymentAPI interface {
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// MercadoPago implements Gateway against the Mercado Pago checkout-pro API.
type MercadoPago struct {
	prefs   preferenceAPI
	pays    paymentAPI
	baseURL string
}

// NewMercadoPago builds the live gateway. baseURL is the public origin used
// for back URLs and the webhook notification URL.
func NewMercadoPago(accessToken, baseURL string) (*MercadoPago, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, errors.New("mercadopago: access token is required")
	}
	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("mercadopago: %w", err)
	}
	return &MercadoPago{
		prefs:   preference.NewClient(cfg),
		pays:    payment.NewClient(cfg),
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// buildItems shapes the line items sent to the processor: one per cart line,
// a shipping line when cost > 0, and a negative-price discount line when a
// discount applies, so the hosted total equals the internally computed one.
func buildItems(req PreferenceRequest) []preference.ItemRequest {
	items := make([]preference.ItemRequest, 0, len(req.Items)+2)
	for _, it := range req.Items {
		items = append(items, preference.ItemRequest{
			ID:         it.ID,
			Title:      it.Title,
			UnitPrice:  it.Price.InexactFloat64(),
			Quantity:   it.Quantity,
			CurrencyID: currencyID,
		})
	}
	if req.ShippingCost.IsPositive() {
		label := req.ShippingLabel
		if label == "" {
			label = "Envio"
		}
		items = append(items, preference.ItemRequest{
			ID:         "shipt-001",
			Title:      "Frete: " + label,
			UnitPrice:  req.ShippingCost.InexactFloat64(),
			Quantity:   1,
			CurrencyID: currencyID,
		})
	}
	if req.DiscountAmount.IsPositive() {
		items = append(items, preference.ItemRequest{
			ID:         "discount-001",
			Title:      "Cupom de Desconto Aplicado",
			UnitPrice:  req.DiscountAmount.Neg().InexactFloat64(),
			Quantity:   1,
			CurrencyID: currencyID,
		})
	}
	return items
}

func (g *MercadoPago) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	resp, err := g.prefs.Create(ctx, preference.Request{
		Items: buildItems(req),
		Payer: &preference.PayerRequest{Email: req.PayerEmail},
		BackURLs: &preference.BackURLsRequest{
			Success: g.baseURL + "/checkout/success",
			Failure: g.baseURL + "/checkout/error",
			Pending: g.baseURL + "/checkout/pending",
		},
		NotificationURL:   g.baseURL + "/api/webhooks/payment",
		ExternalReference: req.OrderID,
		PaymentMethods: &preference.PaymentMethodsRequest{
			Installments: 12,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create preference: %w", err)
	}
	return &Preference{ID: resp.ID, RedirectURL: resp.InitPoint}, nil
}

// PaymentByID re-fetches the authoritative payment record by the id the
// processor supplied in the webhook query string.
func (g *MercadoPago) PaymentByID(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	id, err := strconv.Atoi(paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment id %q: %w", paymentID, err)
	}
	p, err := g.pays.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch payment %d: %w", id, err)
	}
	return &PaymentInfo{
		ID:                strconv.Itoa(p.ID),
		Status:            p.Status,
		OrderID:           p.ExternalReference,
		Method:            p.PaymentMethodID,
		Installments:      p.Installments,
		InstallmentAmount: decimal.NewFromFloat(p.TransactionDetails.InstallmentAmount).Round(2),
	}, nil
}
