package handlers

import (
	"fuelpass/internal/config"
	"fuelpass/internal/middleware"
	"fuelpass/internal/models"
	"fuelpass/internal/services/checkout"
	"fuelpass/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler serves the merchant-authenticated checkout API.
type CheckoutHandler struct {
	sessions checkout.Service
}

func NewCheckoutHandler(sessions checkout.Service) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions}
}

func authedMerchant(c *fiber.Ctx) (*models.Merchant, bool) {
	merchant, ok := c.Locals(middleware.LocalMerchant).(*models.Merchant)
	return merchant, ok
}

func (h *CheckoutHandler) Create(c *fiber.Ctx) error {
	merchant, ok := authedMerchant(c)
	if !ok {
		return response.Unauthorized(c, "missing merchant context")
	}

	var input checkout.CreateSessionInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	session, err := h.sessions.Create(c.Context(), merchant, input)
	if err != nil {
		return writeServiceError(c, err)
	}

	data := sessionView(session)
	data["checkout_url"] = checkoutURL(session.SessionToken)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "session created",
		"data":    data,
	})
}

func (h *CheckoutHandler) Get(c *fiber.Ctx) error {
	merchant, ok := authedMerchant(c)
	if !ok {
		return response.Unauthorized(c, "missing merchant context")
	}

	session, err := h.sessions.Get(c.Context(), merchant.ID, c.Params("token"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "session", sessionView(session))
}

func (h *CheckoutHandler) Cancel(c *fiber.Ctx) error {
	merchant, ok := authedMerchant(c)
	if !ok {
		return response.Unauthorized(c, "missing merchant context")
	}

	session, err := h.sessions.Cancel(c.Context(), merchant.ID, c.Params("token"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "session cancelled", sessionView(session))
}

func (h *CheckoutHandler) Capture(c *fiber.Ctx) error {
	merchant, ok := authedMerchant(c)
	if !ok {
		return response.Unauthorized(c, "missing merchant context")
	}

	result, err := h.sessions.Capture(c.Context(), merchant.ID, c.Params("token"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "session captured", fiber.Map{
		"session": sessionView(result.Session),
		"settlement": fiber.Map{
			"invoice_id":        result.Invoice.ID,
			"gross_amount":      result.Transaction.GrossAmount,
			"commission_amount": result.Transaction.CommissionAmount,
			"net_amount":        result.Transaction.NetAmount,
			"currency":          result.Session.Currency,
		},
	})
}

// checkoutURL is where the merchant redirects the consumer to complete the
// purchase.
func checkoutURL(token string) string {
	return config.GetEnv("CHECKOUT_BASE_URL", "http://localhost:3000") + "/api/v1/pay/" + token
}

// sessionView is the merchant-facing session shape. Consumer PII beyond what
// the merchant already supplied is not expanded.
func sessionView(s *models.CheckoutSession) fiber.Map {
	view := fiber.Map{
		"session_token":      s.SessionToken,
		"merchant_reference": s.MerchantReference,
		"status":             s.Status,
		"total_amount":       s.TotalAmount,
		"tax_amount":         s.TaxAmount,
		"shipping_amount":    s.ShippingAmount,
		"discount_amount":    s.DiscountAmount,
		"currency":           s.Currency,
		"installment_count":  s.InstallmentCount,
		"product_type":       s.ProductType,
		"expires_at":         s.ExpiresAt,
		"created_at":         s.CreatedAt,
	}
	if s.Decision != "" {
		view["decision"] = s.Decision
	}
	if s.DeclineReason != "" {
		view["decline_reason"] = s.DeclineReason
	}
	if s.InvoiceID != nil {
		view["invoice_id"] = *s.InvoiceID
	}
	return view
}
