// Package apikey authenticates merchant API callers against issued keys.
package apikey

import (
	"context"
	"log"
	"time"

	domainerrors "fuelpass/internal/errors"
	"fuelpass/internal/models"
	"fuelpass/internal/repositories"
	"fuelpass/internal/utils"
)

// AuthContext identifies the authenticated caller.
type AuthContext struct {
	Merchant *models.Merchant
	Key      *models.APIKey
	KeyType  string
}

type Service interface {
	// Authenticate resolves a presented secret key to its merchant,
	// enforcing environment rules. Synchronous and idempotent; no retries.
	Authenticate(ctx context.Context, secretKey string) (*AuthContext, error)
}

type service struct {
	keys      repositories.APIKeyRepository
	merchants repositories.MerchantRepository
}

func NewService(keys repositories.APIKeyRepository, merchants repositories.MerchantRepository) Service {
	return &service{keys: keys, merchants: merchants}
}

func (s *service) Authenticate(ctx context.Context, secretKey string) (*AuthContext, error) {
	if secretKey == "" {
		return nil, domainerrors.ErrInvalidCredential
	}

	key, err := s.keys.GetActiveBySecretHash(utils.HashSecret(secretKey))
	if err != nil {
		if err == repositories.ErrAPIKeyNotFound {
			return nil, domainerrors.ErrInvalidCredential
		}
		return nil, err
	}

	merchant, err := s.merchants.GetByID(key.MerchantID)
	if err != nil {
		if err == repositories.ErrMerchantNotFound {
			// An orphaned key is a data integrity violation, not a bad
			// credential. Surface it loudly so operators see it.
			log.Printf("ALERT: api key %d references missing merchant %d", key.ID, key.MerchantID)
			return nil, domainerrors.ErrDataIntegrity
		}
		return nil, err
	}

	switch key.KeyType {
	case models.KeyTypeSandbox:
		// Sandbox keys work for pending merchants; only suspension blocks.
		if merchant.Status == models.MerchantStatusSuspended {
			return nil, domainerrors.ErrMerchantSuspended
		}
	case models.KeyTypeProduction:
		if merchant.Status != models.MerchantStatusActive {
			return nil, domainerrors.ErrMerchantNotActive
		}
	default:
		return nil, domainerrors.ErrInvalidCredential
	}

	// Best effort: losing the last-used timestamp must never fail auth.
	if err := s.keys.TouchLastUsed(key.ID, time.Now()); err != nil {
		log.Printf("failed to record key usage for key %d: %v", key.ID, err)
	}

	return &AuthContext{Merchant: merchant, Key: key, KeyType: key.KeyType}, nil
}
