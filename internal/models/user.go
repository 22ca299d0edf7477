package models

import "time"

// Operator roles
const (
	RoleAdmin   = "admin"
	RoleSupport = "support"
)

// User is an operator of the administrative control plane. Merchants do not
// log in; they authenticate with API keys.
type User struct {
	ID           uint   `gorm:"primarykey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Password     string `gorm:"not null" json:"-"`
	Name         string
	Role         string `gorm:"default:'support'"`
	TokenVersion int    `gorm:"default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
