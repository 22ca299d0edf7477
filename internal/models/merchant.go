package models

import (
	"time"
)

// Merchant lifecycle statuses
const (
	MerchantStatusPending   = "pending"
	MerchantStatusActive    = "active"
	MerchantStatusSuspended = "suspended"
)

// DefaultCommissionRate is the platform commission applied when a merchant
// has no explicit override, in percent.
const DefaultCommissionRate = 3.0

// Merchant is a fuel station (or station network) selling through the
// platform. Status transitions go through the merchant registry only.
type Merchant struct {
	ID               uint   `gorm:"primarykey"`
	Code             string `gorm:"uniqueIndex;not null"`
	LegalName        string `gorm:"not null"`
	DisplayName      string
	ContactEmail     string
	ContactPhone     string
	CommissionRate   float64 `gorm:"default:3"`
	Status           string  `gorm:"default:'pending'"`
	CallbackURL      string
	TransactionCount int64   `gorm:"default:0"`
	MonthlyVolume    float64 `gorm:"default:0"`
	Metadata         JSON    `gorm:"type:jsonb"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive reports whether the merchant may transact in production.
func (m *Merchant) IsActive() bool {
	return m.Status == MerchantStatusActive
}
