package services_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"vitrine/internal/domain"
	"vitrine/internal/repos"
	"vitrine/internal/services"
	"vitrine/internal/shipping"
)

func checkoutSvc(db *sqlx.DB) (*services.CheckoutService, *services.CartService) {
	cartRepo := repos.NewCartRepo(db)
	prodRepo := repos.NewProductRepo(db)
	custRepo := repos.NewCustomerRepo(db)

	cartSvc := services.NewCartService(cartRepo, prodRepo)
	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	couponSvc := services.NewCouponService(repos.NewCouponRepo(db))

	return services.NewCheckoutService(cartSvc, authSvc, couponSvc, custRepo, cartRepo, shipping.Simulator{}), cartSvc
}

func testAddress() domain.Address {
	return domain.Address{
		FullName: "Ana Souza", ZipCode: "01001000", Street: "Rua A", Number: "10",
		Neighborhood: "Centro", City: "São Paulo", State: "SP",
	}
}

func TestCheckoutBeginRequiresItems(t *testing.T) {
	db := seededDB(t)
	checkout, _ := checkoutSvc(db)

	if _, err := checkout.Begin("empty-session"); !errors.Is(err, services.ErrCartEmpty) {
		t.Fatalf("want ErrCartEmpty, got %v", err)
	}
}

func TestCheckoutForwardPathAndGuards(t *testing.T) {
	db := seededDB(t)
	checkout, cart := checkoutSvc(db)

	sid := "sess-1"
	if err := cart.Add(sid, "bone-vtr", "bone-vtr-blk", "", 1); err != nil {
		t.Fatal(err)
	}
	f, err := checkout.Begin(sid)
	if err != nil {
		t.Fatal(err)
	}
	if f.Step != services.StepSummary {
		t.Fatalf("want summary, got %s", f.Step)
	}

	// Out-of-order operations are rejected until the step is reached.
	if _, err := checkout.QuoteShipping(sid, "01001000"); !errors.Is(err, services.ErrWrongStep) {
		t.Fatalf("quote at summary: want ErrWrongStep, got %v", err)
	}
	if _, _, err := checkout.ApplyCoupon(sid, "PROMO10"); !errors.Is(err, services.ErrWrongStep) {
		t.Fatalf("coupon at summary: want ErrWrongStep, got %v", err)
	}

	if _, err := checkout.ConfirmSummary(sid); err != nil {
		t.Fatal(err)
	}
	f, err = checkout.Identify(sid, "ana@vitrine.test", "Passw0rd!", true, "Ana Souza")
	if err != nil {
		t.Fatal(err)
	}
	if f.Step != services.StepDelivery {
		t.Fatalf("want delivery, got %s", f.Step)
	}

	if _, err := checkout.SetDelivery(sid, domain.Address{FullName: "Ana"}, "pac"); !errors.Is(err, services.ErrIncompleteAddress) {
		t.Fatalf("want ErrIncompleteAddress, got %v", err)
	}

	if _, err := checkout.QuoteShipping(sid, "01001000"); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.SetDelivery(sid, testAddress(), "drone"); !errors.Is(err, services.ErrUnknownShipping) {
		t.Fatalf("want ErrUnknownShipping, got %v", err)
	}

	f, err = checkout.SetDelivery(sid, testAddress(), "pac")
	if err != nil {
		t.Fatal(err)
	}
	if f.Step != services.StepPayment || f.Selected == nil || f.Selected.ID != "pac" {
		t.Fatalf("bad payment state: %+v", f)
	}
}

func TestCheckoutBackPreservesData(t *testing.T) {
	db := seededDB(t)
	checkout, cart := checkoutSvc(db)

	sid := "sess-back"
	if err := cart.Add(sid, "cam-neon", "cam-neon-grn", "M", 2); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Begin(sid); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.ConfirmSummary(sid); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Identify(sid, "back@vitrine.test", "Passw0rd!", true, "Back Nav"); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.QuoteShipping(sid, "01001000"); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.SetDelivery(sid, testAddress(), "sedex"); err != nil {
		t.Fatal(err)
	}

	f, err := checkout.Back(sid)
	if err != nil {
		t.Fatal(err)
	}
	if f.Step != services.StepDelivery {
		t.Fatalf("want delivery after back, got %s", f.Step)
	}
	if f.Address == nil || f.Address.City != "São Paulo" || f.Selected == nil {
		t.Fatalf("back lost entered data: %+v", f)
	}
	if f.Identity == nil || f.Identity.Email != "back@vitrine.test" {
		t.Fatalf("back lost identity: %+v", f.Identity)
	}

	// Moving forward again passes the same guard, no skip-ahead shortcut.
	f, err = checkout.SetDelivery(sid, *f.Address, "sedex")
	if err != nil {
		t.Fatal(err)
	}
	if f.Step != services.StepPayment {
		t.Fatalf("want payment, got %s", f.Step)
	}
}

func TestCheckoutRequoteClearsSelection(t *testing.T) {
	db := seededDB(t)
	checkout, cart := checkoutSvc(db)

	sid := "sess-requote"
	if err := cart.Add(sid, "bone-vtr", "bone-vtr-blk", "", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Begin(sid); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.ConfirmSummary(sid); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Identify(sid, "requote@vitrine.test", "Passw0rd!", true, "Re Quote"); err != nil {
		t.Fatal(err)
	}

	opts1, err := checkout.QuoteShipping(sid, "01001000")
	if err != nil {
		t.Fatal(err)
	}
	opts2, err := checkout.QuoteShipping(sid, "60001000")
	if err != nil {
		t.Fatal(err)
	}
	if opts1[0].Price.Equal(opts2[0].Price) {
		t.Fatalf("different bands should price differently: %s vs %s", opts1[0].Price, opts2[0].Price)
	}

	f, err := checkout.Flow(sid)
	if err != nil {
		t.Fatal(err)
	}
	if f.QuotedCEP != "60001000" || f.Selected != nil {
		t.Fatalf("requote should refresh cache and drop selection: %+v", f)
	}
}

func TestCheckoutConcurrentRequotesStayConsistent(t *testing.T) {
	db := seededDB(t)
	checkout, cart := checkoutSvc(db)

	sid := "sess-concurrent"
	if err := cart.Add(sid, "bone-vtr", "bone-vtr-blk", "", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Begin(sid); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.ConfirmSummary(sid); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Identify(sid, "par@vitrine.test", "Passw0rd!", true, "Par Alelo"); err != nil {
		t.Fatal(err)
	}

	// double-submit from the same session must never interleave partial state
	ceps := []string{"01001000", "30001000", "60001000"}
	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(cep string) {
			defer wg.Done()
			if _, err := checkout.QuoteShipping(sid, cep); err != nil {
				t.Error(err)
			}
		}(ceps[i%len(ceps)])
	}
	wg.Wait()

	f, err := checkout.Flow(sid)
	if err != nil {
		t.Fatal(err)
	}
	opts, err := shipping.NewSimulator().Quote(f.QuotedCEP)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Options) != 2 || !f.Options[0].Price.Equal(opts[0].Price) {
		t.Fatalf("cached options do not match quoted CEP %s: %+v", f.QuotedCEP, f.Options)
	}
}

func TestCheckoutIdentifySavesAbandonedCart(t *testing.T) {
	db := seededDB(t)
	checkout, cart := checkoutSvc(db)

	sid := "sess-abandon"
	if err := cart.Add(sid, "tn-nova", "tn-nova-blk", "42", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Begin(sid); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.ConfirmSummary(sid); err != nil {
		t.Fatal(err)
	}
	if _, err := checkout.Identify(sid, "lost@vitrine.test", "Passw0rd!", true, "Lost Soul"); err != nil {
		t.Fatal(err)
	}

	var status string
	if err := db.Get(&status, `SELECT status FROM abandoned_carts WHERE email='lost@vitrine.test'`); err != nil {
		t.Fatal(err)
	}
	if status != "abandoned" {
		t.Fatalf("want abandoned marker, got %s", status)
	}
}
