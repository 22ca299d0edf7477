package utils

import (
	"errors"
	"time"

	"fuelpass/internal/config"
	"fuelpass/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken issues a signed admin access token for the given claims.
func GenerateToken(claims *models.UserClaims) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(24 * time.Hour))
	claims.IssuedAt = jwt.NewNumericDate(time.Now())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.GetEnv("JWT_SECRET", "fuelpass-dev-secret")))
}

// ParseToken validates a token string and returns its claims.
func ParseToken(tokenString string) (*models.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.UserClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(config.GetEnv("JWT_SECRET", "fuelpass-dev-secret")), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
