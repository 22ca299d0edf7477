// Package merchant manages station onboarding: registration, lifecycle
// status changes, and API key issuance/rotation.
package merchant

import (
	"fmt"
	"log"
	"strings"
	"time"

	domainerrors "fuelpass/internal/errors"
	"fuelpass/internal/models"
	"fuelpass/internal/repositories"
	"fuelpass/internal/utils"
	"fuelpass/internal/validation"
)

type RegisterInput struct {
	LegalName      string  `json:"legal_name" validate:"required,max=255"`
	DisplayName    string  `json:"display_name" validate:"omitempty,max=255"`
	ContactEmail   string  `json:"contact_email" validate:"required,email"`
	ContactPhone   string  `json:"contact_phone" validate:"omitempty,min=7,max=20"`
	CommissionRate float64 `json:"commission_rate" validate:"gte=0,lte=100"`
	CallbackURL    string  `json:"callback_url" validate:"omitempty,url"`
}

// RegisterResult carries the new merchant and its one-time sandbox
// credentials. The secret key is not recoverable afterwards.
type RegisterResult struct {
	Merchant *models.Merchant      `json:"merchant"`
	Keys     *models.IssuedKeyPair `json:"keys"`
}

type Service interface {
	// Register creates a pending merchant and issues its sandbox key pair.
	Register(input RegisterInput) (*RegisterResult, error)
	Get(id uint) (*models.Merchant, error)
	GetByCode(code string) (*models.Merchant, error)
	UpdateCallbackURL(id uint, callbackURL string) (*models.Merchant, error)
	// Activate moves pending -> active and issues the production key pair.
	Activate(id uint) (*models.IssuedKeyPair, error)
	// Suspend moves active -> suspended. Existing production keys stop
	// authenticating through the merchant status check.
	Suspend(id uint) error
	// Reinstate moves suspended -> active.
	Reinstate(id uint) error
	// RotateKeys retires every active key of one environment and issues a
	// replacement pair.
	RotateKeys(id uint, keyType string) (*models.IssuedKeyPair, error)
}

type service struct {
	merchants repositories.MerchantRepository
	keys      repositories.APIKeyRepository
}

func NewService(merchants repositories.MerchantRepository, keys repositories.APIKeyRepository) Service {
	return &service{merchants: merchants, keys: keys}
}

func (s *service) Register(input RegisterInput) (*RegisterResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	rate := input.CommissionRate
	if rate == 0 {
		rate = models.DefaultCommissionRate
	}

	m := &models.Merchant{
		Code:           generateCode(),
		LegalName:      input.LegalName,
		DisplayName:    input.DisplayName,
		ContactEmail:   input.ContactEmail,
		ContactPhone:   input.ContactPhone,
		CommissionRate: rate,
		Status:         models.MerchantStatusPending,
		CallbackURL:    input.CallbackURL,
	}
	if err := s.merchants.Create(m); err != nil {
		return nil, fmt.Errorf("create merchant: %w", err)
	}

	pair, err := s.issueKeys(m.ID, models.KeyTypeSandbox)
	if err != nil {
		return nil, err
	}

	log.Printf("registered merchant %s (%s), sandbox keys issued", m.Code, m.LegalName)
	return &RegisterResult{Merchant: m, Keys: pair}, nil
}

func (s *service) Get(id uint) (*models.Merchant, error) {
	m, err := s.merchants.GetByID(id)
	if err != nil {
		if err == repositories.ErrMerchantNotFound {
			return nil, domainerrors.ErrMerchantNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *service) GetByCode(code string) (*models.Merchant, error) {
	m, err := s.merchants.GetByCode(code)
	if err != nil {
		if err == repositories.ErrMerchantNotFound {
			return nil, domainerrors.ErrMerchantNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *service) UpdateCallbackURL(id uint, callbackURL string) (*models.Merchant, error) {
	m, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	m.CallbackURL = callbackURL
	if err := s.merchants.Update(m); err != nil {
		return nil, fmt.Errorf("update merchant %d: %w", id, err)
	}
	return m, nil
}

func (s *service) Activate(id uint) (*models.IssuedKeyPair, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	ok, err := s.merchants.UpdateStatusIf(id, models.MerchantStatusPending, models.MerchantStatusActive)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domainerrors.ErrInvalidStateTransition
	}

	pair, err := s.issueKeys(id, models.KeyTypeProduction)
	if err != nil {
		return nil, err
	}
	log.Printf("activated merchant %d, production keys issued", id)
	return pair, nil
}

func (s *service) Suspend(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	ok, err := s.merchants.UpdateStatusIf(id, models.MerchantStatusActive, models.MerchantStatusSuspended)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.ErrInvalidStateTransition
	}
	log.Printf("suspended merchant %d", id)
	return nil
}

func (s *service) Reinstate(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	ok, err := s.merchants.UpdateStatusIf(id, models.MerchantStatusSuspended, models.MerchantStatusActive)
	if err != nil {
		return err
	}
	if !ok {
		return domainerrors.ErrInvalidStateTransition
	}
	log.Printf("reinstated merchant %d", id)
	return nil
}

func (s *service) RotateKeys(id uint, keyType string) (*models.IssuedKeyPair, error) {
	if keyType != models.KeyTypeSandbox && keyType != models.KeyTypeProduction {
		return nil, fmt.Errorf("unknown key type %q", keyType)
	}
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	if err := s.keys.DeactivateForMerchant(id, keyType); err != nil {
		return nil, fmt.Errorf("retire %s keys for merchant %d: %w", keyType, id, err)
	}

	pair, err := s.issueKeys(id, keyType)
	if err != nil {
		return nil, err
	}
	log.Printf("rotated %s keys for merchant %d", keyType, id)
	return pair, nil
}

// issueKeys mints a key pair, stores the secret hashed, and returns the
// plaintext exactly once.
func (s *service) issueKeys(merchantID uint, keyType string) (*models.IssuedKeyPair, error) {
	pair := &models.IssuedKeyPair{
		KeyType:       keyType,
		PublicKey:     fmt.Sprintf("pk_%s_%s", keyType, utils.MustGenerateSecureCode()),
		SecretKey:     fmt.Sprintf("sk_%s_%s", keyType, utils.MustGenerateSecureCode()),
		WebhookSecret: "whsec_" + utils.MustGenerateSecureCode(),
	}

	record := &models.APIKey{
		MerchantID:    merchantID,
		KeyType:       keyType,
		PublicKey:     pair.PublicKey,
		SecretKeyHash: utils.HashSecret(pair.SecretKey),
		WebhookSecret: pair.WebhookSecret,
		Permissions:   models.JSON{"checkout": "write", "settlement": "read"},
		Active:        true,
	}
	if err := s.keys.Create(record); err != nil {
		return nil, fmt.Errorf("store %s key for merchant %d: %w", keyType, merchantID, err)
	}
	return pair, nil
}

// generateCode derives a short human-readable merchant code.
func generateCode() string {
	raw := strings.ToUpper(utils.MustGenerateSecureCode())
	raw = strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(raw) > 8 {
		raw = raw[:8]
	}
	return fmt.Sprintf("FS-%s-%d", raw, time.Now().Unix()%10000)
}
