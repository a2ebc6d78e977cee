package handlers

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"vitrine/internal/repos"
)

type OrderHandler struct {
	Repo *repos.OrderRepo
}

// Track looks an order up by id + email. The email must match what the
// order was placed with, so the endpoint leaks nothing to id guessers.
func (h *OrderHandler) Track(c *fiber.Ctx) error {
	var req trackRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	o, lines, err := h.Repo.Get(req.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
		}
		return err
	}
	if !strings.EqualFold(o.CustomerEmail, req.Email) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
	}
	return c.JSON(fiber.Map{"order": o, "items": lines})
}

// History lists the signed-in shopper's orders, newest first.
func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	if u == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login_required"})
	}
	orders, err := h.Repo.ListByEmail(u.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"orders": orders})
}
