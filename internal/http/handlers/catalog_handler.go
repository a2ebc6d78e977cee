package handlers

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"vitrine/internal/repos"
	"vitrine/internal/services"
	"vitrine/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
	Prods   *repos.ProductRepo
}

func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Prods.Categories()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": cats})
}

func (h *CatalogHandler) List(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_category"})
	}
	prods, err := h.Prods.ListByCategory(id, c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": prods})
}

func (h *CatalogHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_product"})
	}
	d, err := h.Catalog.ProductDetail(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product_not_found"})
		}
		return err
	}
	return c.JSON(d)
}

// Availability reports coarse stock status for a variant (and size, when
// the product is sized).
func (h *CatalogHandler) Availability(c *fiber.Ctx) error {
	variantID, ok := validate.ID(c.Query("variant"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_variant"})
	}
	a, err := h.Catalog.CheckAvailability(variantID, c.Query("size"))
	if err != nil {
		return err
	}
	return c.JSON(a)
}
