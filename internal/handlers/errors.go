// Package handlers exposes the HTTP surface: merchant checkout API,
// consumer-facing session flow, and the admin control plane.
package handlers

import (
	"errors"
	"log"

	domainerrors "fuelpass/internal/errors"
	"fuelpass/internal/utils/response"
	"fuelpass/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// writeServiceError maps a service error onto the HTTP response. Domain
// errors carry stable codes; anything else becomes a generic 500.
func writeServiceError(c *fiber.Ctx, err error) error {
	var fieldErr validation.ValidationError
	if errors.As(err, &fieldErr) {
		return response.BadRequest(c, fieldErr.Error())
	}
	var tagErrs validator.ValidationErrors
	if errors.As(err, &tagErrs) {
		return response.BadRequest(c, tagErrs.Error())
	}

	var domainErr *domainerrors.DomainError
	if errors.As(err, &domainErr) {
		switch domainErr {
		case domainerrors.ErrSessionNotFound, domainerrors.ErrMerchantNotFound:
			return response.Error(c, fiber.StatusNotFound, domainErr.Code, domainErr.Message)
		case domainerrors.ErrSessionExpired:
			return response.Error(c, fiber.StatusGone, domainErr.Code, domainErr.Message)
		case domainerrors.ErrInvalidStateTransition:
			return response.Conflict(c, domainErr.Code, domainErr.Message)
		case domainerrors.ErrInvalidCredential:
			return response.Unauthorized(c, domainErr.Message)
		case domainerrors.ErrMerchantSuspended, domainerrors.ErrMerchantNotActive:
			return response.Error(c, fiber.StatusForbidden, domainErr.Code, domainErr.Message)
		default:
			return response.ServerError(c, domainErr.Message)
		}
	}

	log.Printf("unhandled service error: %v", err)
	return response.ServerError(c, "internal error")
}
