package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"vitrine/internal/config"
	"vitrine/internal/http/handlers"
	applog "vitrine/internal/log"
	"vitrine/internal/payments"
	"vitrine/internal/repos"
	"vitrine/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Payment gateway: live when a token is configured, disabled otherwise.
	var gw payments.Gateway = payments.Disabled{}
	if cfg.MPAccessToken != "" {
		live, err := payments.NewMercadoPago(cfg.MPAccessToken, cfg.BaseURL)
		if err != nil {
			log.Fatal(err)
		}
		gw = live
	} else {
		log.Printf("[warn] MP_ACCESS_TOKEN not set; payment gateway disabled")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_error"})
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			// Processor retries must never be throttled away.
			return strings.HasPrefix(c.Path(), "/api/webhooks/")
		},
	}))

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, authSvc, gw)

	app.Use(handlers.Maintenance(deps.Settings))

	// Catalog
	app.Get("/api/categories", deps.CatalogHandler.Categories)
	app.Get("/api/categories/:id/products", deps.CatalogHandler.List)
	app.Get("/api/products/:id", deps.CatalogHandler.Detail)
	app.Get("/api/availability", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), deps.CatalogHandler.Availability)

	// Cart
	app.Get("/api/cart", deps.CartHandler.View)
	app.Post("/api/cart", deps.CartHandler.Add)
	app.Put("/api/cart", deps.CartHandler.Update)
	app.Delete("/api/cart", deps.CartHandler.Remove)
	app.Delete("/api/cart/all", deps.CartHandler.Clear)

	// Checkout flow
	checkout := app.Group("/api/checkout")
	checkout.Post("/", deps.CheckoutHandler.Begin)
	checkout.Get("/", deps.CheckoutHandler.Flow)
	checkout.Post("/summary", deps.CheckoutHandler.ConfirmSummary)
	checkout.Post("/identify", limiter.New(limiter.Config{
		Max:        10,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.identify.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts"})
		},
	}), deps.CheckoutHandler.Identify)
	checkout.Post("/shipping", deps.CheckoutHandler.QuoteShipping)
	checkout.Post("/delivery", deps.CheckoutHandler.SetDelivery)
	checkout.Post("/coupon", deps.CheckoutHandler.ApplyCoupon)
	checkout.Delete("/coupon", deps.CheckoutHandler.RemoveCoupon)
	checkout.Post("/back", deps.CheckoutHandler.Back)
	checkout.Post("/confirm", deps.CheckoutHandler.Confirm)
	checkout.Delete("/", deps.CheckoutHandler.Abandon)

	// Orders
	app.Post("/api/orders/track", deps.OrderHandler.Track)
	app.Get("/api/orders", handlers.RequireUser(authSvc), deps.OrderHandler.History)

	// Payment webhook
	app.Post("/api/webhooks/payment", deps.WebhookHandler.Payment)

	// Auth (login throttled)
	app.Post("/api/auth/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts"})
		},
	}), authH.Login)
	app.Post("/api/auth/register", authH.Register)
	app.Post("/api/auth/logout", authH.Logout)
	app.Get("/api/auth/me", authH.Me)

	// Admin
	admin := app.Group("/admin/api", handlers.RequireAdmin(authSvc))
	admin.Get("/dashboard", deps.AdminHandler.Dashboard)
	admin.Get("/orders", deps.AdminHandler.ListOrders)
	admin.Get("/orders/:id", deps.AdminHandler.OrderDetail)
	admin.Post("/orders/:id/status", deps.AdminHandler.UpdateOrderStatus)
	admin.Get("/coupons", deps.AdminHandler.ListCoupons)
	admin.Post("/coupons", deps.AdminHandler.CreateCoupon)
	admin.Put("/coupons/:id", deps.AdminHandler.UpdateCoupon)
	admin.Delete("/coupons/:id", deps.AdminHandler.DeleteCoupon)
	admin.Get("/customers", deps.AdminHandler.ListCustomers)
	admin.Get("/abandoned-carts", deps.AdminHandler.ListAbandonedCarts)
	admin.Post("/stock", deps.AdminHandler.UpdateStock)
	admin.Get("/settings", deps.AdminHandler.GetSettings)
	admin.Put("/settings", deps.AdminHandler.UpdateSettings)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
	})

	log.Fatal(app.Listen(":" + cfg.Port))
}
