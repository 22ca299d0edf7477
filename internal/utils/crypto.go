package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// GenerateSecureCode returns a 32-byte random token, URL-safe encoded.
// Used for session tokens and API secrets; treat the result as a capability.
func GenerateSecureCode() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// MustGenerateSecureCode panics if the system RNG fails.
func MustGenerateSecureCode() string {
	code, err := GenerateSecureCode()
	if err != nil {
		panic("failed to generate secure code: " + err.Error())
	}
	return code
}

// HashSecret returns the hex SHA-256 digest of a secret. Secrets are stored
// hashed so the database never holds a usable credential.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
