package middleware

import (
	"log"
	"strings"

	"fuelpass/internal/models"
	"fuelpass/internal/services/auth"
	"fuelpass/internal/utils"
	"fuelpass/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// AdminMiddleware validates operator JWTs for the control plane. Tokens are
// checked against the stored token version, so logout invalidates them.
type AdminMiddleware struct {
	auth auth.Service
}

func NewAdminMiddleware(authService auth.Service) *AdminMiddleware {
	return &AdminMiddleware{auth: authService}
}

func (m *AdminMiddleware) Handler(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return response.Unauthorized(c, "missing bearer token")
	}

	claims, err := utils.ParseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		log.Printf("admin token rejected: %v", err)
		return response.Unauthorized(c, "invalid token")
	}

	user, err := m.auth.ValidateClaims(claims)
	if err != nil {
		return response.Unauthorized(c, "invalid token")
	}

	c.Locals(LocalClaims, claims)
	c.Locals(LocalUser, user)
	return c.Next()
}

// RequireAdmin restricts a route to operators with the admin role. Must run
// after Handler.
func (m *AdminMiddleware) RequireAdmin(c *fiber.Ctx) error {
	user, ok := c.Locals(LocalUser).(*models.User)
	if !ok || user.Role != models.RoleAdmin {
		return response.Error(c, fiber.StatusForbidden, "FORBIDDEN", "admin role required")
	}
	return c.Next()
}
