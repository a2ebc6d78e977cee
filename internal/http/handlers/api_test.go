package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"vitrine/internal/config"
	"vitrine/internal/http/handlers"
	"vitrine/internal/payments"
	"vitrine/internal/repos"
	"vitrine/internal/services"
)

type fakeGateway struct {
	payment *payments.PaymentInfo
	payErr  error
}

func (g *fakeGateway) CreatePreference(context.Context, payments.PreferenceRequest) (*payments.Preference, error) {
	return &payments.Preference{ID: "pref-1", RedirectURL: "https://pay.test/init"}, nil
}

func (g *fakeGateway) PaymentByID(context.Context, string) (*payments.PaymentInfo, error) {
	if g.payErr != nil {
		return nil, g.payErr
	}
	return g.payment, nil
}

func newTestApp(t *testing.T, gw payments.Gateway) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	auth := &services.AuthService{Users: repos.NewUserRepo(db)}
	authH := &handlers.AuthHandler{Auth: auth}
	deps := handlers.NewDeps(db, config.Config{}, auth, gw)

	app := fiber.New()
	app.Use(handlers.Maintenance(deps.Settings))

	app.Get("/api/categories", deps.CatalogHandler.Categories)
	app.Get("/api/availability", deps.CatalogHandler.Availability)
	app.Get("/api/cart", deps.CartHandler.View)
	app.Post("/api/cart", deps.CartHandler.Add)
	app.Post("/api/webhooks/payment", deps.WebhookHandler.Payment)
	app.Post("/api/auth/login", authH.Login)
	app.Post("/api/auth/logout", authH.Logout)
	app.Post("/admin/api/coupons", handlers.RequireAdmin(auth), deps.AdminHandler.CreateCoupon)

	return app, db
}

// adminLogin binds the seeded ADMIN user to the given session cookie.
func adminLogin(t *testing.T, app *fiber.App, sid string) {
	t.Helper()
	resp := doJSON(t, app, "POST", "/api/auth/login",
		`{"email":"admin@vitrine.test","password":"Passw0rd!"}`, sid)
	if resp.StatusCode != 200 {
		t.Fatalf("admin login: want 200, got %d", resp.StatusCode)
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, cookie string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: cookie})
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestWebhookAcknowledgesIgnoredTypes(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	resp := doJSON(t, app, "POST", "/api/webhooks/payment?type=merchant_order&id=1", "", "")
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
}

func TestWebhookApprovedPaymentMarksOrderPaid(t *testing.T) {
	gw := &fakeGateway{payment: &payments.PaymentInfo{
		ID: "77", Status: payments.StatusApproved, OrderID: "ord-77", Method: "pix", Installments: 1,
	}}
	app, db := newTestApp(t, gw)
	db.MustExec(`INSERT INTO orders(id,customer_email,subtotal,total_amount,status)
	             VALUES('ord-77','x@y.test',100,100,'pending')`)

	resp := doJSON(t, app, "POST", "/api/webhooks/payment?type=payment&data.id=77", "", "")
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}

	var status string
	if err := db.Get(&status, `SELECT status FROM orders WHERE id='ord-77'`); err != nil {
		t.Fatal(err)
	}
	if status != "paid" {
		t.Fatalf("want paid, got %s", status)
	}
}

func TestWebhookFetchFailureReturns500(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{payErr: errors.New("down")})

	resp := doJSON(t, app, "POST", "/api/webhooks/payment?type=payment&data.id=77", "", "")
	if resp.StatusCode != 500 {
		t.Fatalf("want 500 so the processor retries, got %d", resp.StatusCode)
	}
}

func TestMaintenanceModeGatesStorefrontNotWebhooks(t *testing.T) {
	app, db := newTestApp(t, &fakeGateway{})
	if err := repos.NewSettingsRepo(db).SetMaintenance(true); err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, app, "GET", "/api/categories", "", "")
	if resp.StatusCode != 503 {
		t.Fatalf("storefront: want 503, got %d", resp.StatusCode)
	}
	resp = doJSON(t, app, "POST", "/api/webhooks/payment?type=merchant_order&id=1", "", "")
	if resp.StatusCode != 200 {
		t.Fatalf("webhook must bypass maintenance, got %d", resp.StatusCode)
	}
}

func TestCartAddValidatesBody(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	resp := doJSON(t, app, "POST", "/api/cart", `{"qty":2}`, "")
	if resp.StatusCode != 400 {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "validation_failed" {
		t.Fatalf("want validation_failed, got %v", body["error"])
	}
}

func TestCartAddAndViewRoundTrip(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	sid := "test-session"
	resp := doJSON(t, app, "POST", "/api/cart", `{"product_id":"bone-vtr","variant_id":"bone-vtr-blk","qty":2}`, sid)
	if resp.StatusCode != 200 {
		t.Fatalf("add: want 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "GET", "/api/cart", "", sid)
	var view struct {
		Lines    []map[string]any `json:"lines"`
		Subtotal string           `json:"subtotal"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatal(err)
	}
	if len(view.Lines) != 1 || view.Subtotal != "119.80" {
		t.Fatalf("bad cart view: %+v", view)
	}
}

func TestAdminCouponRejectsMalformedExpiry(t *testing.T) {
	app, db := newTestApp(t, &fakeGateway{})
	sid := "admin-sess"
	adminLogin(t, app, sid)

	resp := doJSON(t, app, "POST", "/admin/api/coupons",
		`{"code":"NATAL","discount_type":"fixed","discount_value":"10","expires_at":"2025-12-31","active":true}`, sid)
	if resp.StatusCode != 400 {
		t.Fatalf("want 400, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["error"] != "invalid_expires_at" {
		t.Fatalf("want invalid_expires_at, got %v", body["error"])
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM coupons WHERE code='NATAL'`); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatal("coupon with bad expiry must not be created")
	}
}

func TestAdminCouponNormalizesExpiryToUTC(t *testing.T) {
	app, db := newTestApp(t, &fakeGateway{})
	sid := "admin-sess"
	adminLogin(t, app, sid)

	resp := doJSON(t, app, "POST", "/admin/api/coupons",
		`{"code":"VERAO","discount_type":"percentage","discount_value":"15","expires_at":"2030-01-01T00:00:00-03:00","active":true}`, sid)
	if resp.StatusCode != 201 {
		t.Fatalf("want 201, got %d", resp.StatusCode)
	}
	var stored string
	if err := db.Get(&stored, `SELECT expires_at FROM coupons WHERE code='VERAO'`); err != nil {
		t.Fatal(err)
	}
	// stored in UTC so string comparison at placement time stays ordered
	if stored != "2030-01-01T03:00:00Z" {
		t.Fatalf("want UTC-normalized expiry, got %s", stored)
	}
}

func TestLogoutUnbindsSession(t *testing.T) {
	app, db := newTestApp(t, &fakeGateway{})
	sid := "logout-sess"
	resp := doJSON(t, app, "POST", "/api/auth/login",
		`{"email":"cliente@vitrine.test","password":"Passw0rd!"}`, sid)
	if resp.StatusCode != 200 {
		t.Fatalf("login: want 200, got %d", resp.StatusCode)
	}

	resp = doJSON(t, app, "POST", "/api/auth/logout", "", sid)
	if resp.StatusCode != 200 {
		t.Fatalf("logout: want 200, got %d", resp.StatusCode)
	}

	var userID *string
	if err := db.Get(&userID, `SELECT user_id FROM sessions WHERE id=?`, sid); err != nil {
		t.Fatal(err)
	}
	if userID != nil {
		t.Fatalf("session still bound to %s", *userID)
	}
}

func TestAvailabilityStatuses(t *testing.T) {
	app, _ := newTestApp(t, &fakeGateway{})

	cases := []struct {
		query string
		want  string
	}{
		{"variant=tn-nova-blk&size=42", "IN_STOCK"},  // 6 units
		{"variant=tn-nova-blk&size=44", "LOW_STOCK"}, // 2 units
		{"variant=tn-nova-blk&size=48", "OUT_OF_STOCK"},
	}
	for _, tc := range cases {
		resp := doJSON(t, app, "GET", "/api/availability?"+tc.query, "", "")
		var got struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if got.Status != tc.want {
			t.Fatalf("%s: want %s, got %s", tc.query, tc.want, got.Status)
		}
	}
}
