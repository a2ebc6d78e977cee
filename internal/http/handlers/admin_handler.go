package handlers

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vitrine/internal/domain"
	applog "vitrine/internal/log"
	"vitrine/internal/repos"
	"vitrine/internal/validate"
)

// AdminHandler serves the back-office API. All routes behind RequireAdmin.
type AdminHandler struct {
	Orders    *repos.OrderRepo
	Coupons   *repos.CouponRepo
	Carts     *repos.CartRepo
	Customers *repos.CustomerRepo
	Stock     *repos.StockRepo
	Settings  *repos.SettingsRepo
}

func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.Orders.Stats()
	if err != nil {
		return err
	}
	latest, err := h.Orders.ListLatest(10)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"orders":        stats.Orders,
		"paid":          stats.Paid,
		"pending":       stats.Pending,
		"revenue":       stats.Revenue.StringFixed(2),
		"latest_orders": latest,
	})
}

// ---------- Orders ----------

func (h *AdminHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.Orders.ListLatest(c.QueryInt("limit", 100))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"orders": orders})
}

func (h *AdminHandler) OrderDetail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_order"})
	}
	o, lines, err := h.Orders.Get(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order_not_found"})
		}
		return err
	}
	return c.JSON(fiber.Map{"order": o, "items": lines})
}

func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_order"})
	}
	var req orderStatusRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	if err := h.Orders.UpdateStatus(id, req.Status, req.TrackingCode); err != nil {
		return err
	}
	applog.Audit(c, "admin.order.status", map[string]any{"order_id": id, "status": req.Status})
	return c.JSON(fiber.Map{"ok": true})
}

// ---------- Coupons ----------

func (h *AdminHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.Coupons.List()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"coupons": coupons})
}

func couponFromRequest(req couponUpsertRequest) (*domain.Coupon, error) {
	code, ok := validate.CouponCode(req.Code)
	if !ok {
		return nil, errors.New("invalid_code")
	}
	value, err := decimal.NewFromString(req.DiscountValue)
	if err != nil || value.IsNegative() {
		return nil, errors.New("invalid_discount_value")
	}
	min := decimal.Zero
	if req.MinPurchase != "" {
		if min, err = decimal.NewFromString(req.MinPurchase); err != nil || min.IsNegative() {
			return nil, errors.New("invalid_min_purchase")
		}
	}
	var expiresAt *string
	if req.ExpiresAt != nil {
		// Stored normalized to UTC so the expiry guards compare consistently.
		exp, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return nil, errors.New("invalid_expires_at")
		}
		iso := exp.UTC().Format(time.RFC3339)
		expiresAt = &iso
	}
	return &domain.Coupon{
		Code:          code,
		DiscountType:  req.DiscountType,
		DiscountValue: value,
		MinPurchase:   min,
		UsageLimit:    req.UsageLimit,
		ExpiresAt:     expiresAt,
		Active:        req.Active,
	}, nil
}

func (h *AdminHandler) CreateCoupon(c *fiber.Ctx) error {
	var req couponUpsertRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	coupon, err := couponFromRequest(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	coupon.ID = uuid.NewString()
	if err := h.Coupons.Create(coupon); err != nil {
		return err
	}
	applog.Audit(c, "admin.coupon.create", map[string]any{"code": coupon.Code})
	return c.Status(fiber.StatusCreated).JSON(coupon)
}

func (h *AdminHandler) UpdateCoupon(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_coupon"})
	}
	var req couponUpsertRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	coupon, err := couponFromRequest(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	coupon.ID = id
	if err := h.Coupons.Update(coupon); err != nil {
		return err
	}
	applog.Audit(c, "admin.coupon.update", map[string]any{"code": coupon.Code})
	return c.JSON(coupon)
}

func (h *AdminHandler) DeleteCoupon(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_coupon"})
	}
	if err := h.Coupons.Delete(id); err != nil {
		return err
	}
	applog.Audit(c, "admin.coupon.delete", map[string]any{"id": id})
	return c.JSON(fiber.Map{"ok": true})
}

// ---------- Customers & abandoned carts ----------

func (h *AdminHandler) ListCustomers(c *fiber.Ctx) error {
	customers, err := h.Customers.List(c.QueryInt("limit", 200))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"customers": customers})
}

func (h *AdminHandler) ListAbandonedCarts(c *fiber.Ctx) error {
	carts, err := h.Carts.ListAbandoned()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"carts": carts})
}

// ---------- Stock ----------

type stockUpdateRequest struct {
	VariantID string `json:"variant_id" validate:"required"`
	Size      string `json:"size"`
	Stock     int    `json:"stock" validate:"min=0"`
}

func (h *AdminHandler) UpdateStock(c *fiber.Ctx) error {
	var req stockUpdateRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	var err error
	if req.Size != "" {
		err = h.Stock.UpsertSize(uuid.NewString(), req.VariantID, req.Size, req.Stock)
	} else {
		err = h.Stock.SetVariantStock(req.VariantID, req.Stock)
	}
	if err != nil {
		return err
	}
	applog.Audit(c, "admin.stock.update", map[string]any{
		"variant_id": req.VariantID, "size": req.Size, "stock": req.Stock,
	})
	return c.JSON(fiber.Map{"ok": true})
}

// ---------- Settings ----------

func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	st, err := h.Settings.Get()
	if err != nil {
		return err
	}
	return c.JSON(st)
}

func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var req settingsRequest
	if err := bind(c, &req); err != nil {
		return nil
	}
	if req.StoreName != nil {
		if err := h.Settings.SetStoreName(*req.StoreName); err != nil {
			return err
		}
	}
	if req.MaintenanceMode != nil {
		if err := h.Settings.SetMaintenance(*req.MaintenanceMode); err != nil {
			return err
		}
		applog.Audit(c, "admin.maintenance", map[string]any{"on": *req.MaintenanceMode})
	}
	st, err := h.Settings.Get()
	if err != nil {
		return err
	}
	return c.JSON(st)
}
