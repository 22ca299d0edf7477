// Package middleware holds the fiber request middleware: merchant API key
// authentication and admin JWT validation.
package middleware

import (
	"errors"
	"strings"

	domainerrors "fuelpass/internal/errors"
	"fuelpass/internal/services/apikey"
	"fuelpass/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the middleware for downstream handlers.
const (
	LocalMerchant = "merchant"
	LocalAPIKey   = "api_key"
	LocalKeyType  = "key_type"
	LocalClaims   = "claims"
	LocalUser     = "user"
)

// APIKeyMiddleware authenticates merchant requests. The secret key comes
// from the Authorization Bearer header or the X-API-Key header.
type APIKeyMiddleware struct {
	keys apikey.Service
}

func NewAPIKeyMiddleware(keys apikey.Service) *APIKeyMiddleware {
	return &APIKeyMiddleware{keys: keys}
}

func (m *APIKeyMiddleware) Handler(c *fiber.Ctx) error {
	secret := extractSecret(c)
	if secret == "" {
		return response.Unauthorized(c, "missing API key")
	}

	auth, err := m.keys.Authenticate(c.Context(), secret)
	if err != nil {
		var domainErr *domainerrors.DomainError
		if errors.As(err, &domainErr) {
			switch domainErr {
			case domainerrors.ErrMerchantSuspended, domainerrors.ErrMerchantNotActive:
				return response.Error(c, fiber.StatusForbidden, domainErr.Code, domainErr.Message)
			case domainerrors.ErrDataIntegrity:
				return response.ServerError(c, domainErr.Message)
			default:
				return response.Unauthorized(c, domainErr.Message)
			}
		}
		return response.ServerError(c, "authentication failed")
	}

	c.Locals(LocalMerchant, auth.Merchant)
	c.Locals(LocalAPIKey, auth.Key)
	c.Locals(LocalKeyType, auth.KeyType)
	return c.Next()
}

func extractSecret(c *fiber.Ctx) string {
	if header := c.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Get("X-API-Key")
}
