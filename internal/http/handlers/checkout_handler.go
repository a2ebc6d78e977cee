package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"vitrine/internal/domain"
	applog "vitrine/internal/log"
	"vitrine/internal/services"
	"vitrine/internal/shipping"
	"vitrine/internal/validate"
)

type CheckoutHandler struct {
	Checkout *services.CheckoutService
	Orders   *services.OrderService
}

// stepError maps flow guard violations to a 409 so the client can re-sync
// its view of the current step.
func stepError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNoActiveCheckout):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_active_checkout"})
	case errors.Is(err, services.ErrWrongStep):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "wrong_step"})
	case errors.Is(err, services.ErrCartEmpty):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "cart_empty"})
	}
	return err
}

func (h *CheckoutHandler) Begin(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f, err := h.Checkout.Begin(sid)
	if err != nil {
		return stepError(c, err)
	}
	return c.JSON(viewFlow(f))
}

func (h *CheckoutHandler) Flow(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f, err := h.Checkout.Flow(sid)
	if err != nil {
		return stepError(c, err)
	}
	return c.JSON(viewFlow(f))
}

func (h *CheckoutHandler) ConfirmSummary(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f, err := h.Checkout.ConfirmSummary(sid)
	if err != nil {
		return stepError(c, err)
	}
	return c.JSON(viewFlow(f))
}

func (h *CheckoutHandler) Identify(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req identifyRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_email"})
	}
	name, nameOK := validate.Name(req.Name)
	if req.Register {
		if !nameOK {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_name"})
		}
		if !validate.Password(req.Password) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "weak_password"})
		}
	}
	f, err := h.Checkout.Identify(sid, email, req.Password, req.Register, name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBadCreds):
			applog.Security(c, "checkout.login.fail", map[string]any{"email": req.Email})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_credentials"})
		case errors.Is(err, services.ErrEmailTaken):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "email_taken"})
		}
		return stepError(c, err)
	}
	applog.Audit(c, "checkout.identified", map[string]any{"email": req.Email})
	return c.JSON(viewFlow(f))
}

func (h *CheckoutHandler) QuoteShipping(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req shippingQuoteRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	cep, ok := validate.CEP(req.CEP)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_cep"})
	}
	opts, err := h.Checkout.QuoteShipping(sid, cep)
	if err != nil {
		if errors.Is(err, shipping.ErrInvalidCEP) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_cep"})
		}
		return stepError(c, err)
	}
	return c.JSON(fiber.Map{"options": opts})
}

func (h *CheckoutHandler) SetDelivery(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req deliveryRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	cep, ok := validate.CEP(req.ZipCode)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_cep"})
	}
	uf, ok := validate.UF(req.State)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_state"})
	}
	name, ok := validate.Name(req.FullName)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_name"})
	}
	addr := domain.Address{
		FullName:     name,
		ZipCode:      cep,
		Street:       req.Street,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        uf,
	}
	f, err := h.Checkout.SetDelivery(sid, addr, req.ShippingID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIncompleteAddress):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "incomplete_address"})
		case errors.Is(err, services.ErrNoShippingSelected), errors.Is(err, services.ErrUnknownShipping):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_shipping_option"})
		}
		return stepError(c, err)
	}
	return c.JSON(viewFlow(f))
}

func (h *CheckoutHandler) ApplyCoupon(c *fiber.Ctx) error {
	sid := ensureSID(c)
	var req couponRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	f, discount, err := h.Checkout.ApplyCoupon(sid, req.Code)
	if err != nil {
		var minErr *services.BelowMinPurchaseError
		switch {
		case errors.Is(err, services.ErrCouponNotFound), errors.Is(err, services.ErrCouponInactive):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon_not_found", "message": "Cupom inválido ou não encontrado."})
		case errors.Is(err, services.ErrCouponExpired):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "coupon_expired", "message": "Este cupom expirou."})
		case errors.Is(err, services.ErrCouponExhausted):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "coupon_exhausted", "message": "Este cupom atingiu o limite de uso."})
		case errors.As(err, &minErr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":   "below_min_purchase",
				"message": fmt.Sprintf("Valor mínimo para este cupom: R$ %s.", minErr.Min.StringFixed(2)),
			})
		}
		return stepError(c, err)
	}
	applog.Audit(c, "checkout.coupon.applied", map[string]any{"code": req.Code, "discount": discount.StringFixed(2)})
	return c.JSON(viewFlow(f))
}

func (h *CheckoutHandler) RemoveCoupon(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f, err := h.Checkout.RemoveCoupon(sid)
	if err != nil {
		return stepError(c, err)
	}
	return c.JSON(viewFlow(f))
}

func (h *CheckoutHandler) Back(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f, err := h.Checkout.Back(sid)
	if err != nil {
		return stepError(c, err)
	}
	return c.JSON(viewFlow(f))
}

// Confirm places the order for the current flow. On success the cart is
// cleared and the client is handed the payment redirect.
func (h *CheckoutHandler) Confirm(c *fiber.Ctx) error {
	sid := ensureSID(c)
	f, err := h.Checkout.Flow(sid)
	if err != nil {
		return stepError(c, err)
	}

	placed, err := h.Orders.Place(c.Context(), f)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCheckoutIncomplete):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "checkout_incomplete"})
		case errors.Is(err, services.ErrCouponConsumed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon_consumed", "message": "Este cupom não está mais disponível."})
		}
		if placed != nil {
			// Order persisted but the payment preference failed; surface the
			// order so support can retry payment out of band.
			applog.Error(c, "checkout.payment.preference", err, map[string]any{"order_id": placed.Order.ID})
			h.Checkout.Finish(sid)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":    "payment_unavailable",
				"order_id": placed.Order.ID,
			})
		}
		return err
	}

	h.Checkout.Finish(sid)
	applog.Audit(c, "order.placed", map[string]any{
		"order_id": placed.Order.ID,
		"total":    placed.Order.TotalAmount.StringFixed(2),
	})
	return c.JSON(fiber.Map{
		"order_id":     placed.Order.ID,
		"total":        placed.Order.TotalAmount.StringFixed(2),
		"redirect_url": placed.RedirectURL,
	})
}

func (h *CheckoutHandler) Abandon(c *fiber.Ctx) error {
	sid := ensureSID(c)
	h.Checkout.Abandon(sid)
	return c.JSON(fiber.Map{"ok": true})
}
