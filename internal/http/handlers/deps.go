package handlers

import (
	"vitrine/internal/config"
	"vitrine/internal/payments"
	"vitrine/internal/repos"
	"vitrine/internal/services"
	"vitrine/internal/shipping"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	CatalogHandler  *CatalogHandler
	CartHandler     *CartHandler
	CheckoutHandler *CheckoutHandler
	OrderHandler    *OrderHandler
	WebhookHandler  *WebhookHandler
	AdminHandler    *AdminHandler

	Settings *repos.SettingsRepo
}

func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, gw payments.Gateway) *Deps {
	prodRepo := repos.NewProductRepo(db)
	stockRepo := repos.NewStockRepo(db)
	couponRepo := repos.NewCouponRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	custRepo := repos.NewCustomerRepo(db)
	settingsRepo := repos.NewSettingsRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo, stockRepo)
	cartSvc := services.NewCartService(cartRepo, prodRepo)
	couponSvc := services.NewCouponService(couponRepo)
	quotes := shipping.NewSimulator()
	checkoutSvc := services.NewCheckoutService(cartSvc, auth, couponSvc, custRepo, cartRepo, quotes)
	orderSvc := services.NewOrderService(db, orderRepo, stockRepo, couponRepo, cartRepo, gw)

	return &Deps{
		CatalogHandler:  &CatalogHandler{Catalog: catalogSvc, Prods: prodRepo},
		CartHandler:     &CartHandler{Cart: cartSvc},
		CheckoutHandler: &CheckoutHandler{Checkout: checkoutSvc, Orders: orderSvc},
		OrderHandler:    &OrderHandler{Repo: orderRepo},
		WebhookHandler:  &WebhookHandler{Hooks: services.NewWebhookService(orderRepo, gw)},
		AdminHandler: &AdminHandler{
			Orders:    orderRepo,
			Coupons:   couponRepo,
			Carts:     cartRepo,
			Customers: custRepo,
			Stock:     stockRepo,
			Settings:  settingsRepo,
		},
		Settings: settingsRepo,
	}
}
