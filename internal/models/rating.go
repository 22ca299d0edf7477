package models

import "time"

// Priority tiers, ordered best to worst.
const (
	TierPremium    = "premium"
	TierHigh       = "high"
	TierStandard   = "standard"
	TierRestricted = "restricted"
	TierBlocked    = "blocked"
)

// CustomerRating is the derived, cached risk profile for one consumer.
// Written only by the risk engine; a re-evaluation replaces the row whole.
type CustomerRating struct {
	ID     uint   `gorm:"primarykey"`
	UserID string `gorm:"uniqueIndex;not null"`

	IdentityVerified   bool
	AgeVerified        bool
	CompliancePassed   bool
	CreditApproved     bool
	EmploymentVerified bool

	EmploymentScore int
	CreditScore     int
	ComplianceScore int

	OverallScore    int
	PriorityTier    string `gorm:"default:'blocked'"`
	Eligible        bool
	CreditLimit     float64
	MaxInstallments int

	EvaluatedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
