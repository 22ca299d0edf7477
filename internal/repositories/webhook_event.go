package repositories

import (
	"time"

	"fuelpass/internal/models"

	"gorm.io/gorm"
)

// pendingGraceWindow is how long a pending event may sit before the sweeper
// assumes the initial in-flight attempt died with the process and re-drives
// it.
const pendingGraceWindow = 2 * time.Minute

type WebhookEventRepository interface {
	Create(event *models.WebhookEvent) error
	Update(event *models.WebhookEvent) error
	// ListDue returns events owed a delivery attempt: failed events whose
	// retry timestamp has passed, plus pending events older than the grace
	// window (stranded by a crash before their first attempt was recorded).
	// The table is the durable outbox, so retries survive a restart.
	ListDue(now time.Time, limit int) ([]models.WebhookEvent, error)
	ListByMerchant(merchantID uint, limit int) ([]models.WebhookEvent, error)
}

type webhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) WebhookEventRepository {
	return &webhookEventRepository{db: db}
}

func (r *webhookEventRepository) Create(event *models.WebhookEvent) error {
	return r.db.Create(event).Error
}

func (r *webhookEventRepository) Update(event *models.WebhookEvent) error {
	return r.db.Save(event).Error
}

func (r *webhookEventRepository) ListDue(now time.Time, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.Where("(status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?) OR (status = ? AND created_at <= ?)",
		models.WebhookStatusFailed, now,
		models.WebhookStatusPending, now.Add(-pendingGraceWindow)).
		Order("created_at asc").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *webhookEventRepository) ListByMerchant(merchantID uint, limit int) ([]models.WebhookEvent, error) {
	var events []models.WebhookEvent
	err := r.db.Where("merchant_id = ?", merchantID).
		Order("created_at desc").
		Limit(limit).
		Find(&events).Error
	return events, err
}
