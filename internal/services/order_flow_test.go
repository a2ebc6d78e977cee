package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"

	"vitrine/internal/payments"
	"vitrine/internal/repos"
	"vitrine/internal/services"
)

// fakeGateway records the preference request and returns a canned redirect.
type fakeGateway struct {
	lastPref *payments.PreferenceRequest
	prefErr  error
	payment  *payments.PaymentInfo
	payErr   error
	payCalls int
}

func (g *fakeGateway) CreatePreference(_ context.Context, req payments.PreferenceRequest) (*payments.Preference, error) {
	g.lastPref = &req
	if g.prefErr != nil {
		return nil, g.prefErr
	}
	return &payments.Preference{ID: "pref-1", RedirectURL: "https://pay.test/init/pref-1"}, nil
}

func (g *fakeGateway) PaymentByID(context.Context, string) (*payments.PaymentInfo, error) {
	g.payCalls++
	if g.payErr != nil {
		return nil, g.payErr
	}
	return g.payment, nil
}

func orderSvc(db *sqlx.DB, gw payments.Gateway) *services.OrderService {
	return services.NewOrderService(db, repos.NewOrderRepo(db), repos.NewStockRepo(db),
		repos.NewCouponRepo(db), repos.NewCartRepo(db), gw)
}

// placeReady drives a session to the Payment step with a 2x100.00 cart and a
// quoted band-2 CEP (PAC at 25.00).
func placeReady(t *testing.T, db *sqlx.DB, checkout *services.CheckoutService, cart *services.CartService, sid, email string) *services.CheckoutFlow {
	t.Helper()
	db.MustExec(`INSERT INTO products(id,category_id,name,price) VALUES('p-cem','sneakers','Tênis Cem',100)`)
	db.MustExec(`INSERT INTO product_variants(id,product_id,color_name,stock) VALUES('v-cem','p-cem','Preto',10)`)

	if err := cart.Add(sid, "p-cem", "v-cem", "", 2); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Begin(sid); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.ConfirmSummary(sid); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Identify(sid, email, "Passw0rd!", true, "Ana Souza"); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.QuoteShipping(sid, "30001000"); err != nil {
		t.Fatal(err)
	}
	addr := testAddress()
	addr.ZipCode = "30001000"
	f, err := checkout.SetDelivery(sid, addr, "pac")
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestPlaceOrderEndToEnd(t *testing.T) {
	db := seededDB(t)
	checkout, cart := checkoutSvc(db)
	gw := &fakeGateway{}
	orders := orderSvc(db, gw)

	sid := "sess-place"
	placeReady(t, db, checkout, cart, sid, "compra@vitrine.test")
	if _, _, err := checkout.ApplyCoupon(sid, "PROMO10"); err != nil {
		t.Fatal(err)
	}
	f, err := checkout.Flow(sid)
	if err != nil {
		t.Fatal(err)
	}

	placed, err := orders.Place(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}

	// 200 subtotal + 25 shipping - 10% of 200
	if !placed.Order.TotalAmount.Equal(d("205")) {
		t.Fatalf("want total 205, got %s", placed.Order.TotalAmount)
	}
	if placed.Order.Status != "pending" {
		t.Fatalf("want pending, got %s", placed.Order.Status)
	}
	if placed.RedirectURL == "" {
		t.Fatal("no redirect URL")
	}

	// durable side effects
	var stock int
	if err := db.Get(&stock, `SELECT stock FROM product_variants WHERE id='v-cem'`); err != nil {
		t.Fatal(err)
	}
	if stock != 8 {
		t.Fatalf("want stock 8, got %d", stock)
	}
	var usage int
	if err := db.Get(&usage, `SELECT usage_count FROM coupons WHERE code='PROMO10'`); err != nil {
		t.Fatal(err)
	}
	if usage != 1 {
		t.Fatalf("want usage_count 1, got %d", usage)
	}
	var cartStatus string
	if err := db.Get(&cartStatus, `SELECT status FROM abandoned_carts WHERE email='compra@vitrine.test'`); err != nil {
		t.Fatal(err)
	}
	if cartStatus != "recovered" {
		t.Fatalf("want recovered, got %s", cartStatus)
	}
	var items int
	if err := db.Get(&items, `SELECT COUNT(*) FROM order_items WHERE order_id=?`, placed.Order.ID); err != nil {
		t.Fatal(err)
	}
	if items != 1 {
		t.Fatalf("want 1 line, got %d", items)
	}

	// preference mirrors the internal pricing
	if gw.lastPref == nil || !gw.lastPref.DiscountAmount.Equal(d("20")) || !gw.lastPref.ShippingCost.Equal(d("25")) {
		t.Fatalf("bad preference request: %+v", gw.lastPref)
	}
}

func TestPlaceOrderRejectsConsumedCoupon(t *testing.T) {
	db := seededDB(t)
	checkout, cart := checkoutSvc(db)
	orders := orderSvc(db, &fakeGateway{})

	db.MustExec(`INSERT INTO coupons(id,code,discount_type,discount_value,usage_limit)
	             VALUES('c-once','ONCE','fixed',10,1)`)

	sid := "sess-race"
	placeReady(t, db, checkout, cart, sid, "race@vitrine.test")
	if _, _, err := checkout.ApplyCoupon(sid, "ONCE"); err != nil {
		t.Fatal(err)
	}
	f, err := checkout.Flow(sid)
	if err != nil {
		t.Fatal(err)
	}

	// Another shopper burns the last use between validation and placement.
	db.MustExec(`UPDATE coupons SET usage_count = 1 WHERE code='ONCE'`)

	if _, err := orders.Place(context.Background(), f); !errors.Is(err, services.ErrCouponConsumed) {
		t.Fatalf("want ErrCouponConsumed, got %v", err)
	}

	// the whole placement rolled back
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM orders`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("want no orders, got %d", n)
	}
	var stock int
	if err := db.Get(&stock, `SELECT stock FROM product_variants WHERE id='v-cem'`); err != nil {
		t.Fatal(err)
	}
	if stock != 10 {
		t.Fatalf("stock must be untouched, got %d", stock)
	}
}

func TestPlaceOrderKeepsPendingWhenGatewayFails(t *testing.T) {
	db := seededDB(t)
	checkout, cart := checkoutSvc(db)
	gw := &fakeGateway{prefErr: errors.New("processor down")}
	orders := orderSvc(db, gw)

	sid := "sess-gwfail"
	f := placeReady(t, db, checkout, cart, sid, "gw@vitrine.test")

	placed, err := orders.Place(context.Background(), f)
	if err == nil {
		t.Fatal("want error from gateway")
	}
	if placed == nil || placed.Order.ID == "" {
		t.Fatal("order should survive a preference failure")
	}

	var status string
	if err := db.Get(&status, `SELECT status FROM orders WHERE id=?`, placed.Order.ID); err != nil {
		t.Fatal(err)
	}
	if status != "pending" {
		t.Fatalf("want pending, got %s", status)
	}
}

func TestPlaceOrderRequiresCompleteFlow(t *testing.T) {
	db := seededDB(t)
	orders := orderSvc(db, &fakeGateway{})

	if _, err := orders.Place(context.Background(), nil); !errors.Is(err, services.ErrCheckoutIncomplete) {
		t.Fatalf("want ErrCheckoutIncomplete, got %v", err)
	}
}

func TestDecrementStockFloorsAtZero(t *testing.T) {
	db := seededDB(t)
	stock := repos.NewStockRepo(db)

	db.MustExec(`INSERT INTO products(id,category_id,name,price) VALUES('p-low','sneakers','Low Stock',10)`)
	db.MustExec(`INSERT INTO product_variants(id,product_id,stock) VALUES('v-low','p-low',2)`)

	// buying more than available floors at zero instead of going negative
	if err := stock.DecrementVariant(db, "v-low", 5); err != nil {
		t.Fatal(err)
	}
	qty, err := stock.VariantStock("v-low")
	if err != nil {
		t.Fatal(err)
	}
	if qty != 0 {
		t.Fatalf("want 0, got %d", qty)
	}
}
