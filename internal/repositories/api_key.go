package repositories

import (
	"errors"
	"time"

	"fuelpass/internal/models"

	"gorm.io/gorm"
)

var ErrAPIKeyNotFound = errors.New("api key not found")

type APIKeyRepository interface {
	Create(key *models.APIKey) error
	// GetActiveBySecretHash resolves the single active key matching a hashed
	// secret. Lookup is by hash so plaintext secrets never touch the store.
	GetActiveBySecretHash(hash string) (*models.APIKey, error)
	ListByMerchant(merchantID uint) ([]models.APIKey, error)
	// GetActiveByMerchant resolves the active key for one environment, used
	// to pick the webhook signing secret.
	GetActiveByMerchant(merchantID uint, keyType string) (*models.APIKey, error)
	// DeactivateForMerchant retires all active keys of one environment,
	// used during rotation.
	DeactivateForMerchant(merchantID uint, keyType string) error
	// TouchLastUsed is best-effort bookkeeping; callers ignore its error.
	TouchLastUsed(id uint, at time.Time) error
}

type apiKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(key *models.APIKey) error {
	return r.db.Create(key).Error
}

func (r *apiKeyRepository) GetActiveBySecretHash(hash string) (*models.APIKey, error) {
	var key models.APIKey
	err := r.db.Where("secret_key_hash = ? AND active = ?", hash, true).First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepository) ListByMerchant(merchantID uint) ([]models.APIKey, error) {
	var keys []models.APIKey
	err := r.db.Where("merchant_id = ?", merchantID).Order("created_at desc").Find(&keys).Error
	return keys, err
}

func (r *apiKeyRepository) GetActiveByMerchant(merchantID uint, keyType string) (*models.APIKey, error) {
	var key models.APIKey
	err := r.db.Where("merchant_id = ? AND key_type = ? AND active = ?", merchantID, keyType, true).
		Order("created_at desc").
		First(&key).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepository) DeactivateForMerchant(merchantID uint, keyType string) error {
	return r.db.Model(&models.APIKey{}).
		Where("merchant_id = ? AND key_type = ? AND active = ?", merchantID, keyType, true).
		Update("active", false).Error
}

func (r *apiKeyRepository) TouchLastUsed(id uint, at time.Time) error {
	return r.db.Model(&models.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}
