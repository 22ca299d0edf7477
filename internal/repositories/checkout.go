package repositories

import (
	"errors"
	"time"

	"fuelpass/internal/models"

	"gorm.io/gorm"
)

var ErrSessionNotFound = errors.New("checkout session not found")

type CheckoutRepository interface {
	Create(session *models.CheckoutSession) error
	GetByToken(token string) (*models.CheckoutSession, error)
	// TransitionIf applies updates only when the session's current status
	// matches from (compare-and-swap). Returns false when another caller won
	// the transition or the session is in a different state.
	TransitionIf(token, from string, updates map[string]interface{}) (bool, error)
	// TransitionIfFresh is TransitionIf with an additional TTL guard: the
	// update commits only while expires_at is still in the future. Approval
	// uses this so a session whose TTL lapses mid-evaluation can never be
	// approved.
	TransitionIfFresh(token, from string, now time.Time, updates map[string]interface{}) (bool, error)
	// ListExpired returns pending sessions past their TTL, for the sweeper.
	ListExpired(now time.Time, limit int) ([]models.CheckoutSession, error)
}

type checkoutRepository struct {
	db *gorm.DB
}

func NewCheckoutRepository(db *gorm.DB) CheckoutRepository {
	return &checkoutRepository{db: db}
}

func (r *checkoutRepository) Create(session *models.CheckoutSession) error {
	return r.db.Create(session).Error
}

func (r *checkoutRepository) GetByToken(token string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.Where("session_token = ?", token).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (r *checkoutRepository) TransitionIf(token, from string, updates map[string]interface{}) (bool, error) {
	res := r.db.Model(&models.CheckoutSession{}).
		Where("session_token = ? AND status = ?", token, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *checkoutRepository) TransitionIfFresh(token, from string, now time.Time, updates map[string]interface{}) (bool, error) {
	res := r.db.Model(&models.CheckoutSession{}).
		Where("session_token = ? AND status = ? AND expires_at > ?", token, from, now).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *checkoutRepository) ListExpired(now time.Time, limit int) ([]models.CheckoutSession, error) {
	var sessions []models.CheckoutSession
	err := r.db.Where("status = ? AND expires_at < ?", models.SessionStatusPending, now).
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}
