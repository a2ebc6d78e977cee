package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "vitrine/internal/log"
	"vitrine/internal/services"
)

type WebhookHandler struct {
	Hooks *services.WebhookService
}

// Payment receives processor notifications. The processor retries on
// non-2xx, so anything we chose to ignore still answers 200; only a
// failure we want redelivered bubbles up as an error.
func (h *WebhookHandler) Payment(c *fiber.Ctx) error {
	notificationType := c.Query("type")
	if notificationType == "" {
		notificationType = c.Query("topic")
	}
	paymentID := c.Query("data.id")
	if paymentID == "" {
		paymentID = c.Query("id")
	}

	applog.Audit(c, "webhook.received", map[string]any{"type": notificationType, "payment_id": paymentID})

	if err := h.Hooks.Reconcile(c.Context(), notificationType, paymentID); err != nil {
		applog.Error(c, "webhook.reconcile", err, map[string]any{"payment_id": paymentID})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "reconcile_failed"})
	}
	return c.JSON(fiber.Map{"received": true})
}
