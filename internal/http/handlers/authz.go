package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"vitrine/internal/domain"
	applog "vitrine/internal/log"
	"vitrine/internal/repos"
	"vitrine/internal/services"
)

func currentUser(c *fiber.Ctx) *domain.User {
	if u, ok := c.Locals("user").(*domain.User); ok {
		return u
	}
	return nil
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil || u.Role != "ADMIN" {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// RequireUser enforces that a shopper is logged in.
func RequireUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
		}
		u, err := auth.CurrentUser(sid)
		if err != nil || u == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}

// Maintenance gates the storefront behind the admin toggle. Admin routes
// and payment webhooks keep working so the store can be brought back and
// in-flight payments still reconcile.
func Maintenance(settings *repos.SettingsRepo) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := c.Path()
		if p == "/healthz" || strings.HasPrefix(p, "/admin") ||
			strings.HasPrefix(p, "/api/webhooks") || strings.HasPrefix(p, "/api/auth") {
			return c.Next()
		}
		st, err := settings.Get()
		if err == nil && st.MaintenanceMode {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "maintenance",
				"message": "Loja em manutenção. Voltamos em breve.",
			})
		}
		return c.Next()
	}
}
