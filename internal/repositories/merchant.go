package repositories

import (
	"errors"

	"fuelpass/internal/models"

	"gorm.io/gorm"
)

var ErrMerchantNotFound = errors.New("merchant not found")

type MerchantRepository interface {
	GetByID(id uint) (*models.Merchant, error)
	GetByCode(code string) (*models.Merchant, error)
	Create(merchant *models.Merchant) error
	Update(merchant *models.Merchant) error
	// UpdateStatusIf flips the status only when the current value matches
	// from. Returns false when the guard did not hold.
	UpdateStatusIf(id uint, from, to string) (bool, error)
}

type merchantRepository struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepository{db: db}
}

func (r *merchantRepository) GetByID(id uint) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.First(&merchant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

func (r *merchantRepository) GetByCode(code string) (*models.Merchant, error) {
	var merchant models.Merchant
	if err := r.db.Where("code = ?", code).First(&merchant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMerchantNotFound
		}
		return nil, err
	}
	return &merchant, nil
}

func (r *merchantRepository) Create(merchant *models.Merchant) error {
	return r.db.Create(merchant).Error
}

func (r *merchantRepository) Update(merchant *models.Merchant) error {
	return r.db.Save(merchant).Error
}

func (r *merchantRepository) UpdateStatusIf(id uint, from, to string) (bool, error) {
	res := r.db.Model(&models.Merchant{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
