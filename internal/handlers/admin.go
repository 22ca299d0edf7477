package handlers

import (
	"fmt"
	"strconv"
	"time"

	"fuelpass/internal/middleware"
	"fuelpass/internal/models"
	"fuelpass/internal/repositories"
	"fuelpass/internal/services/auth"
	"fuelpass/internal/services/merchant"
	"fuelpass/internal/services/risk"
	"fuelpass/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler is the operator control plane: merchant lifecycle, key
// rotation, webhook delivery visibility, and settlement batching.
type AdminHandler struct {
	auth      auth.Service
	merchants merchant.Service
	risk      risk.Service
	events    repositories.WebhookEventRepository
	ledger    repositories.LedgerRepository
}

func NewAdminHandler(
	authService auth.Service,
	merchants merchant.Service,
	riskService risk.Service,
	events repositories.WebhookEventRepository,
	ledger repositories.LedgerRepository,
) *AdminHandler {
	return &AdminHandler{
		auth:      authService,
		merchants: merchants,
		risk:      riskService,
		events:    events,
		ledger:    ledger,
	}
}

func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var input auth.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.auth.Login(input)
	if err != nil {
		if err == auth.ErrInvalidLogin {
			return response.Unauthorized(c, err.Error())
		}
		return writeServiceError(c, err)
	}
	return response.Success(c, "logged in", fiber.Map{
		"token": result.Token,
		"user": fiber.Map{
			"id":    result.User.ID,
			"email": result.User.Email,
			"role":  result.User.Role,
		},
	})
}

func (h *AdminHandler) Logout(c *fiber.Ctx) error {
	user, ok := c.Locals(middleware.LocalUser).(*models.User)
	if !ok {
		return response.Unauthorized(c, "missing user context")
	}
	if err := h.auth.Logout(user.ID); err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "logged out", nil)
}

func (h *AdminHandler) RegisterMerchant(c *fiber.Ctx) error {
	var input merchant.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	result, err := h.merchants.Register(input)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "merchant registered; store the secret key now, it is not shown again",
		"data":    result,
	})
}

func (h *AdminHandler) GetMerchant(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	m, err := h.merchants.Get(id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "merchant", m)
}

func (h *AdminHandler) ActivateMerchant(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	pair, err := h.merchants.Activate(id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "merchant activated; store the production secret now", pair)
}

func (h *AdminHandler) SuspendMerchant(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.merchants.Suspend(id); err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "merchant suspended", nil)
}

func (h *AdminHandler) ReinstateMerchant(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := h.merchants.Reinstate(id); err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "merchant reinstated", nil)
}

type rotateKeysRequest struct {
	KeyType string `json:"key_type"`
}

func (h *AdminHandler) RotateKeys(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	var req rotateKeysRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.KeyType == "" {
		req.KeyType = models.KeyTypeProduction
	}

	pair, err := h.merchants.RotateKeys(id, req.KeyType)
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "keys rotated; store the new secret now", pair)
}

func (h *AdminHandler) ListWebhookEvents(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	events, err := h.events.ListByMerchant(id, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "webhook events", events)
}

func (h *AdminHandler) ListTransactions(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	rows, err := h.ledger.ListTransactionsByMerchant(id, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "transactions", rows)
}

func (h *AdminHandler) SettleMerchant(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	reference := fmt.Sprintf("stl_%d_%d", id, time.Now().Unix())
	settlement, err := h.ledger.BatchSettlement(id, reference)
	if err != nil {
		return writeServiceError(c, err)
	}
	return response.Success(c, "settlement created", settlement)
}

func (h *AdminHandler) GetConsumerRating(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	rating, err := h.risk.GetRating(c.Context(), userID)
	if err != nil {
		return response.NotFound(c, "no rating for consumer")
	}
	return response.Success(c, "rating", rating)
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return uint(id), nil
}
