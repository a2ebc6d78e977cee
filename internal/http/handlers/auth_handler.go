package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "vitrine/internal/log"
	"vitrine/internal/services"
	"vitrine/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	u, err := h.Auth.Login(sid, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			applog.Security(c, "login.fail", map[string]any{"email": req.Email})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_credentials"})
		}
		return err
	}
	applog.Audit(c, "login.ok", map[string]any{"email": u.Email})
	return c.JSON(fiber.Map{"user": u})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req identifyRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_email"})
	}
	name, ok := validate.Name(req.Name)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_name"})
	}
	if !validate.Password(req.Password) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "weak_password"})
	}
	u, err := h.Auth.Register(sid, email, name, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_taken"})
		}
		return err
	}
	applog.Audit(c, "register.ok", map[string]any{"email": u.Email})
	return c.JSON(fiber.Map{"user": u})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if sid := c.Cookies("sid"); sid != "" {
		if err := h.Auth.Logout(sid); err != nil {
			applog.Error(c, "logout.unbind", err, map[string]any{"sid": sid})
		}
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
	}
	return c.JSON(fiber.Map{"user": u})
}
