package handlers

import (
	"errors"

	"fuelpass/internal/config"
	"fuelpass/internal/models"
	"fuelpass/internal/services/checkout"
	"fuelpass/internal/services/verification"
	"fuelpass/internal/utils/response"
	"fuelpass/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ConsumerHandler serves the public consumer flow: viewing a session by its
// token, verifying identity, and confirming the purchase. The session token
// is the only capability required.
type ConsumerHandler struct {
	sessions checkout.Service
	identity verification.IdentityVerifier
}

func NewConsumerHandler(sessions checkout.Service, identity verification.IdentityVerifier) *ConsumerHandler {
	return &ConsumerHandler{sessions: sessions, identity: identity}
}

func (h *ConsumerHandler) GetSession(c *fiber.Ctx) error {
	session, err := h.sessions.GetByToken(c.Context(), c.Params("token"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "session", consumerSessionView(session))
}

type identityInitiateRequest struct {
	NationalID string `json:"national_id" validate:"required,len=14,numeric"`
}

func (h *ConsumerHandler) IdentityInitiate(c *fiber.Ctx) error {
	session, err := h.sessions.GetByToken(c.Context(), c.Params("token"))
	if err != nil {
		return writeServiceError(c, err)
	}

	var req identityInitiateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return writeServiceError(c, err)
	}

	ch, err := h.identity.Initiate(c.Context(), session.ConsumerPhone, req.NationalID)
	if err != nil {
		if errors.Is(err, verification.ErrInvalidNationalID) {
			return response.BadRequest(c, err.Error())
		}
		return writeServiceError(c, err)
	}

	data := fiber.Map{
		"challenge_id": ch.ChallengeID,
		"expires_at":   ch.ExpiresAt,
	}
	// The code would go out over SMS in production. Sandbox surfaces it so
	// integrators can complete the flow.
	if !config.IsProduction() {
		data["code"] = ch.Code
	}
	return response.Success(c, "verification code sent", data)
}

type identityConfirmRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

func (h *ConsumerHandler) IdentityConfirm(c *fiber.Ctx) error {
	session, err := h.sessions.GetByToken(c.Context(), c.Params("token"))
	if err != nil {
		return writeServiceError(c, err)
	}

	var req identityConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validation.Struct(req); err != nil {
		return writeServiceError(c, err)
	}

	result, err := h.identity.Confirm(c.Context(), session.ConsumerPhone, req.Code)
	if err != nil {
		if errors.Is(err, verification.ErrInvalidCode) {
			return response.Error(c, fiber.StatusUnprocessableEntity, "INVALID_CODE", err.Error())
		}
		return writeServiceError(c, err)
	}

	return response.Success(c, "identity verification", fiber.Map{
		"verified": result.Verified,
		"status":   result.Status,
	})
}

func (h *ConsumerHandler) Confirm(c *fiber.Ctx) error {
	session, err := h.sessions.Confirm(c.Context(), c.Params("token"))
	if err != nil {
		return writeServiceError(c, err)
	}

	data := consumerSessionView(session)
	if session.Status == models.SessionStatusApproved {
		data["redirect_url"] = session.SuccessURL
	} else {
		data["redirect_url"] = session.FailureURL
	}
	return response.Success(c, "decision recorded", data)
}

// consumerSessionView hides merchant-side settlement detail and the decline
// specifics; the consumer sees only a generic outcome.
func consumerSessionView(s *models.CheckoutSession) fiber.Map {
	view := fiber.Map{
		"session_token":     s.SessionToken,
		"status":            s.Status,
		"total_amount":      s.TotalAmount,
		"currency":          s.Currency,
		"installment_count": s.InstallmentCount,
		"items":             s.Items,
		"expires_at":        s.ExpiresAt,
	}
	if s.Status == models.SessionStatusDeclined {
		view["message"] = "the purchase could not be approved"
	}
	return view
}
