package auth

import (
	"testing"

	"fuelpass/internal/models"
	"fuelpass/internal/repositories"
	"fuelpass/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) IncrementTokenVersion(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func storedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:       1,
		Email:    "admin@fuelpass.example",
		Password: string(hash),
		Role:     models.RoleAdmin,
	}
}

func TestLogin(t *testing.T) {
	users := new(MockUserRepo)
	svc := NewService(users)

	users.On("GetByEmail", "admin@fuelpass.example").Return(storedUser(t, "correct-horse-battery"), nil)

	result, err := svc.Login(LoginInput{Email: "admin@fuelpass.example", Password: "correct-horse-battery"})
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)

	claims, err := utils.ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(MockUserRepo)
	svc := NewService(users)

	users.On("GetByEmail", "admin@fuelpass.example").Return(storedUser(t, "correct-horse-battery"), nil)

	_, err := svc.Login(LoginInput{Email: "admin@fuelpass.example", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestLogin_UnknownEmailSameError(t *testing.T) {
	users := new(MockUserRepo)
	svc := NewService(users)

	users.On("GetByEmail", "nobody@fuelpass.example").Return(nil, repositories.ErrUserNotFound)

	_, err := svc.Login(LoginInput{Email: "nobody@fuelpass.example", Password: "whatever-pass"})
	assert.ErrorIs(t, err, ErrInvalidLogin)
}

func TestLogin_ValidatesInput(t *testing.T) {
	svc := NewService(new(MockUserRepo))

	_, err := svc.Login(LoginInput{Email: "not-an-email", Password: "long-enough"})
	assert.Error(t, err)

	_, err = svc.Login(LoginInput{Email: "a@b.example", Password: "short"})
	assert.Error(t, err)
}

func TestValidateClaims_StaleTokenVersion(t *testing.T) {
	users := new(MockUserRepo)
	svc := NewService(users)

	users.On("GetByID", uint(1)).Return(&models.User{ID: 1, TokenVersion: 2}, nil)

	_, err := svc.ValidateClaims(&models.UserClaims{UserID: 1, TokenVersion: 1})
	assert.ErrorIs(t, err, ErrInvalidLogin)

	user, err := svc.ValidateClaims(&models.UserClaims{UserID: 1, TokenVersion: 2})
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)
}

func TestLogout_BumpsTokenVersion(t *testing.T) {
	users := new(MockUserRepo)
	svc := NewService(users)

	users.On("IncrementTokenVersion", uint(1)).Return(nil)
	require.NoError(t, svc.Logout(1))
	users.AssertCalled(t, "IncrementTokenVersion", uint(1))
}

func TestCreateOperator_HashesPassword(t *testing.T) {
	users := new(MockUserRepo)
	svc := NewService(users)

	var stored *models.User
	users.On("Create", mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(0).(*models.User)
	}).Return(nil)

	_, err := svc.CreateOperator("ops@fuelpass.example", "a-strong-password", "Ops", models.RoleSupport)
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.NotEqual(t, "a-strong-password", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("a-strong-password")))
}
