package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"vitrine/internal/services"
)

type CartHandler struct {
	Cart *services.CartService
}

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies("sid")
	if sid == "" {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{Name: "sid", Value: sid, Path: "/", HTTPOnly: true})
	}
	return sid
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req addCartRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	qty := req.Qty
	if qty <= 0 {
		qty = 1
	}
	if err := h.Cart.Add(sid, req.ProductID, req.VariantID, req.Size, qty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product_not_found"})
		}
		if errors.Is(err, services.ErrVariantMismatch) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "variant_mismatch"})
		}
		return err
	}
	return h.View(c)
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req updateCartRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	if err := h.Cart.SetQuantity(sid, req.ProductID, req.VariantID, req.Size, req.Qty); err != nil {
		return err
	}
	return h.View(c)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req addCartRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	if err := h.Cart.Remove(sid, req.ProductID, req.VariantID, req.Size); err != nil {
		return err
	}
	return h.View(c)
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	sid := ensureSID(c)
	if err := h.Cart.Clear(sid); err != nil {
		return err
	}
	return h.View(c)
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	sid := ensureSID(c)
	cv, err := h.Cart.View(sid)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"lines":    cv.Lines,
		"subtotal": cv.Subtotal.StringFixed(2),
	})
}
