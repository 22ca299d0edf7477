package models

import "time"

// API key environments
const (
	KeyTypeSandbox    = "sandbox"
	KeyTypeProduction = "production"
)

// APIKey is a credential issued per merchant per environment. The secret is
// stored hashed; the plaintext is shown exactly once at issuance.
type APIKey struct {
	ID            uint   `gorm:"primarykey"`
	MerchantID    uint   `gorm:"index;not null"`
	KeyType       string `gorm:"not null"`
	PublicKey     string `gorm:"uniqueIndex;not null"`
	SecretKeyHash string `gorm:"uniqueIndex;not null"`
	WebhookSecret string `gorm:"not null"`
	Permissions   JSON   `gorm:"type:jsonb"`
	Active        bool   `gorm:"default:true"`
	LastUsedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IssuedKeyPair carries the one-time plaintext credentials returned at
// issuance or rotation. Never persisted.
type IssuedKeyPair struct {
	KeyType       string `json:"key_type"`
	PublicKey     string `json:"public_key"`
	SecretKey     string `json:"secret_key"`
	WebhookSecret string `json:"webhook_secret"`
}
