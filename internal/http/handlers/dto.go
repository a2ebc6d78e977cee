package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"vitrine/internal/services"
)

// Request DTOs for the shopper-facing API. Shapes are explicit and
// validated at the boundary; nothing loosely-typed crosses into services.

type addCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id"`
	Size      string `json:"size"`
	Qty       int    `json:"qty" validate:"omitempty,min=1,max=50"`
}

type updateCartRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	VariantID string `json:"variant_id"`
	Size      string `json:"size"`
	Qty       int    `json:"qty" validate:"required,min=1,max=50"`
}

type identifyRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=64"`
	Register bool   `json:"register"`
	Name     string `json:"name" validate:"required_if=Register true,max=80"`
}

type shippingQuoteRequest struct {
	CEP string `json:"cep" validate:"required"`
}

type deliveryRequest struct {
	FullName     string `json:"full_name" validate:"required,max=80"`
	ZipCode      string `json:"zip_code" validate:"required"`
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required,len=2"`
	ShippingID   string `json:"shipping_id" validate:"required"`
}

type couponRequest struct {
	Code string `json:"code" validate:"required,max=40"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type orderStatusRequest struct {
	Status       string  `json:"status" validate:"required,oneof=pending paid shipped delivered canceled"`
	TrackingCode *string `json:"tracking_code"`
}

type couponUpsertRequest struct {
	Code          string  `json:"code" validate:"required,max=40"`
	DiscountType  string  `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue string  `json:"discount_value" validate:"required"`
	MinPurchase   string  `json:"min_purchase"`
	UsageLimit    *int    `json:"usage_limit" validate:"omitempty,min=1"`
	ExpiresAt     *string `json:"expires_at"`
	Active        bool    `json:"active"`
}

type settingsRequest struct {
	StoreName       *string `json:"store_name" validate:"omitempty,max=80"`
	MaintenanceMode *bool   `json:"maintenance_mode"`
}

type trackRequest struct {
	OrderID string `json:"order_id" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}

var v = validator.New()

// bind parses the JSON body into out and validates it, writing a 400 with
// field detail on failure. A non-nil return short-circuits the handler.
func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request_body"})
		return err
	}
	if err := v.Struct(out); err != nil {
		fields := map[string]string{}
		if ve, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range ve {
				fields[fe.Field()] = fe.Tag()
			}
		}
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "fields": fields})
		return err
	}
	return nil
}

// flowView is the API shape of the in-progress checkout.
type flowView struct {
	Step     string                 `json:"step"`
	Flow     *services.CheckoutFlow `json:"flow"`
	Subtotal string                 `json:"subtotal"`
	Shipping string                 `json:"shipping"`
	Discount string                 `json:"discount"`
	Total    string                 `json:"total"`
}

func viewFlow(f *services.CheckoutFlow) flowView {
	return flowView{
		Step:     f.Step.String(),
		Flow:     f,
		Subtotal: f.Subtotal().StringFixed(2),
		Shipping: f.ShippingCost().StringFixed(2),
		Discount: f.Discount().StringFixed(2),
		Total:    f.Total().StringFixed(2),
	}
}
