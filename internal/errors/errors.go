// Package errors defines domain error values shared across services.
package errors

import "fmt"

// DomainError is an error with a stable machine-readable code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrInvalidCredential = &DomainError{
		Code:    "INVALID_CREDENTIAL",
		Message: "invalid or inactive API key",
	}
	ErrMerchantNotFound = &DomainError{
		Code:    "MERCHANT_NOT_FOUND",
		Message: "merchant not found",
	}
	ErrMerchantSuspended = &DomainError{
		Code:    "MERCHANT_SUSPENDED",
		Message: "merchant account is suspended",
	}
	ErrMerchantNotActive = &DomainError{
		Code:    "MERCHANT_NOT_ACTIVE",
		Message: "merchant is not active for production use",
	}
	ErrInvalidStateTransition = &DomainError{
		Code:    "INVALID_STATE_TRANSITION",
		Message: "session is not in a state that allows this operation",
	}
	ErrSessionNotFound = &DomainError{
		Code:    "SESSION_NOT_FOUND",
		Message: "checkout session not found",
	}
	ErrSessionExpired = &DomainError{
		Code:    "SESSION_EXPIRED",
		Message: "checkout session has expired",
	}
	ErrDataIntegrity = &DomainError{
		Code:    "DATA_INTEGRITY",
		Message: "stored records are inconsistent",
	}
)
