package models

import "time"

// Ledger row statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"

	SettlementStatusPending   = "pending"
	SettlementStatusCompleted = "completed"
)

// MerchantTransaction is an immutable ledger row recording one capture event.
// Only the status field ever changes after creation.
type MerchantTransaction struct {
	ID               uint    `gorm:"primarykey"`
	MerchantID       uint    `gorm:"index;not null"`
	SessionID        uint    `gorm:"uniqueIndex;not null"`
	InvoiceID        uint    `gorm:"index"`
	GrossAmount      float64 `gorm:"not null"`
	CommissionAmount float64 `gorm:"not null"`
	NetAmount        float64 `gorm:"not null"`
	Currency         string  `gorm:"default:'EGP'"`
	Status           string  `gorm:"not null;default:'pending'"`
	SettlementID     *uint   `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Settlement batches captured transactions into one payable reference.
type Settlement struct {
	ID               uint   `gorm:"primarykey"`
	MerchantID       uint   `gorm:"index;not null"`
	Reference        string `gorm:"uniqueIndex;not null"`
	GrossAmount      float64
	CommissionAmount float64
	NetAmount        float64
	TransactionCount int
	Status           string `gorm:"not null;default:'pending'"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Invoice is the downstream payable created at capture. A captured session
// links to exactly one invoice.
type Invoice struct {
	ID               uint    `gorm:"primarykey"`
	SessionID        uint    `gorm:"uniqueIndex;not null"`
	MerchantID       uint    `gorm:"index;not null"`
	Amount           float64 `gorm:"not null"`
	InstallmentCount int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
