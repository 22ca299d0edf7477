// Package auth handles admin operator login for the control plane.
package auth

import (
	"errors"
	"log"

	"fuelpass/internal/models"
	"fuelpass/internal/repositories"
	"fuelpass/internal/utils"
	"fuelpass/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidLogin = errors.New("invalid email or password")

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type Service interface {
	Login(input LoginInput) (*LoginResult, error)
	// Logout bumps the token version, invalidating every outstanding token.
	Logout(userID uint) error
	// ValidateClaims re-checks a parsed token against the stored version.
	ValidateClaims(claims *models.UserClaims) (*models.User, error)
	CreateOperator(email, password, name, role string) (*models.User, error)
}

type service struct {
	users repositories.UserRepository
}

func NewService(users repositories.UserRepository) Service {
	return &service{users: users}
}

func (s *service) Login(input LoginInput) (*LoginResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(input.Email)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			// Same error for unknown email and wrong password.
			return nil, ErrInvalidLogin
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		return nil, ErrInvalidLogin
	}

	token, err := utils.GenerateToken(&models.UserClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, err
	}

	log.Printf("operator %s logged in", user.Email)
	return &LoginResult{Token: token, User: user}, nil
}

func (s *service) Logout(userID uint) error {
	return s.users.IncrementTokenVersion(userID)
}

func (s *service) ValidateClaims(claims *models.UserClaims) (*models.User, error) {
	user, err := s.users.GetByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidLogin
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrInvalidLogin
	}
	return user, nil
}

func (s *service) CreateOperator(email, password, name, role string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     name,
		Role:     role,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}
