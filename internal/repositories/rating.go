package repositories

import (
	"errors"

	"fuelpass/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrRatingNotFound = errors.New("customer rating not found")

type RatingRepository interface {
	// Upsert replaces the rating for a consumer whole; re-evaluations never
	// merge into a prior rating.
	Upsert(rating *models.CustomerRating) error
	GetByUserID(userID string) (*models.CustomerRating, error)
}

type ratingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Upsert(rating *models.CustomerRating) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(rating).Error
}

func (r *ratingRepository) GetByUserID(userID string) (*models.CustomerRating, error) {
	var rating models.CustomerRating
	err := r.db.Where("user_id = ?", userID).First(&rating).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return &rating, nil
}
