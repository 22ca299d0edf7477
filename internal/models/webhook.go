package models

import "time"

// Webhook event types
const (
	EventCheckoutApproved = "checkout.approved"
	EventCheckoutDeclined = "checkout.declined"
	EventCheckoutExpired  = "checkout.expired"
	EventPaymentCaptured  = "payment.captured"
)

// Webhook delivery statuses
const (
	WebhookStatusPending = "pending"
	WebhookStatusSent    = "sent"
	WebhookStatusFailed  = "failed"
)

// WebhookEvent is one outbound notification record. Rows are never deleted;
// they double as the durable retry outbox and the audit trail.
type WebhookEvent struct {
	ID           uint   `gorm:"primarykey"`
	EventID      string `gorm:"uniqueIndex;not null"`
	MerchantID   uint   `gorm:"index;not null"`
	EventType    string `gorm:"not null"`
	ResourceType string `gorm:"not null"`
	ResourceID   string `gorm:"not null"`
	Payload      JSON   `gorm:"type:jsonb"`
	TargetURL    string `gorm:"not null"`
	Status       string `gorm:"not null;default:'pending';index"`
	HTTPStatus   int
	Attempts     int        `gorm:"default:0"`
	NextRetryAt  *time.Time `gorm:"index"`
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
