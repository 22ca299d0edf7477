package models

import "time"

// Checkout session statuses
const (
	SessionStatusPending   = "pending"
	SessionStatusApproved  = "approved"
	SessionStatusDeclined  = "declined"
	SessionStatusCaptured  = "captured"
	SessionStatusCancelled = "cancelled"
	SessionStatusExpired   = "expired"
)

// Credit decisions recorded on a session
const (
	DecisionApproved = "approved"
	DecisionDeclined = "declined"
)

// SessionTTL is the window a pending session stays actionable.
const SessionTTL = 30 * time.Minute

// CheckoutSession is the transactional unit: a time-boxed purchase request a
// merchant opens on behalf of a consumer. Mutated only through the session
// machine; immutable once terminal.
type CheckoutSession struct {
	ID                uint   `gorm:"primarykey"`
	SessionToken      string `gorm:"uniqueIndex;not null"`
	MerchantID        uint   `gorm:"index;not null"`
	MerchantReference string `gorm:"not null"`

	ConsumerPhone      string `gorm:"not null"`
	ConsumerEmail      string
	ConsumerName       string
	ConsumerNationalID string

	TotalAmount    float64 `gorm:"not null"`
	TaxAmount      float64 `gorm:"default:0"`
	ShippingAmount float64 `gorm:"default:0"`
	DiscountAmount float64 `gorm:"default:0"`
	Currency       string  `gorm:"default:'EGP'"`
	Items          JSON    `gorm:"type:jsonb"`

	InstallmentCount int    `gorm:"default:1"`
	ProductType      string `gorm:"default:'fuel'"`

	SuccessURL string
	FailureURL string
	CancelURL  string
	WebhookURL string // per-session override of the merchant callback URL

	Decision      string
	DeclineReason string
	CreditLimit   float64
	RiskScore     int

	InvoiceID *uint `gorm:"index"`

	Status     string `gorm:"not null;default:'pending'"`
	ExpiresAt  time.Time
	ApprovedAt *time.Time
	CapturedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Terminal reports whether the session may never transition again.
func (s *CheckoutSession) Terminal() bool {
	switch s.Status {
	case SessionStatusCaptured, SessionStatusDeclined, SessionStatusCancelled, SessionStatusExpired:
		return true
	}
	return false
}

// Expired reports whether a pending session has outlived its TTL.
func (s *CheckoutSession) Expired(now time.Time) bool {
	return s.Status == SessionStatusPending && now.After(s.ExpiresAt)
}

// SessionItem is one line item on a checkout session.
type SessionItem struct {
	Name      string  `json:"name" validate:"required"`
	Quantity  int     `json:"quantity" validate:"gt=0"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}
