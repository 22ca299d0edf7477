package apikey

import (
	"context"
	"errors"
	"testing"
	"time"

	domainerrors "fuelpass/internal/errors"
	"fuelpass/internal/models"
	"fuelpass/internal/repositories"
	"fuelpass/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKeyRepo struct {
	mock.Mock
}

func (m *MockKeyRepo) Create(key *models.APIKey) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockKeyRepo) GetActiveBySecretHash(hash string) (*models.APIKey, error) {
	args := m.Called(hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockKeyRepo) ListByMerchant(merchantID uint) ([]models.APIKey, error) {
	args := m.Called(merchantID)
	return args.Get(0).([]models.APIKey), args.Error(1)
}

func (m *MockKeyRepo) GetActiveByMerchant(merchantID uint, keyType string) (*models.APIKey, error) {
	args := m.Called(merchantID, keyType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockKeyRepo) DeactivateForMerchant(merchantID uint, keyType string) error {
	args := m.Called(merchantID, keyType)
	return args.Error(0)
}

func (m *MockKeyRepo) TouchLastUsed(id uint, at time.Time) error {
	args := m.Called(id, at)
	return args.Error(0)
}

type MockMerchantRepo struct {
	mock.Mock
}

func (m *MockMerchantRepo) GetByID(id uint) (*models.Merchant, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Merchant), args.Error(1)
}

func (m *MockMerchantRepo) GetByCode(code string) (*models.Merchant, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Merchant), args.Error(1)
}

func (m *MockMerchantRepo) Create(merchant *models.Merchant) error {
	args := m.Called(merchant)
	return args.Error(0)
}

func (m *MockMerchantRepo) Update(merchant *models.Merchant) error {
	args := m.Called(merchant)
	return args.Error(0)
}

func (m *MockMerchantRepo) UpdateStatusIf(id uint, from, to string) (bool, error) {
	args := m.Called(id, from, to)
	return args.Bool(0), args.Error(1)
}

const secret = "sk_sandbox_testsecret"

func activeKey(keyType string) *models.APIKey {
	return &models.APIKey{
		ID:            7,
		MerchantID:    3,
		KeyType:       keyType,
		SecretKeyHash: utils.HashSecret(secret),
		Active:        true,
	}
}

func TestAuthenticate_Success(t *testing.T) {
	keys := new(MockKeyRepo)
	merchants := new(MockMerchantRepo)
	svc := NewService(keys, merchants)

	keys.On("GetActiveBySecretHash", utils.HashSecret(secret)).Return(activeKey(models.KeyTypeProduction), nil)
	merchants.On("GetByID", uint(3)).Return(&models.Merchant{ID: 3, Status: models.MerchantStatusActive}, nil)
	keys.On("TouchLastUsed", uint(7), mock.Anything).Return(nil)

	auth, err := svc.Authenticate(context.Background(), secret)
	require.NoError(t, err)
	assert.Equal(t, uint(3), auth.Merchant.ID)
	assert.Equal(t, models.KeyTypeProduction, auth.KeyType)
	keys.AssertExpectations(t)
}

func TestAuthenticate_UnknownKey(t *testing.T) {
	keys := new(MockKeyRepo)
	merchants := new(MockMerchantRepo)
	svc := NewService(keys, merchants)

	keys.On("GetActiveBySecretHash", mock.Anything).Return(nil, repositories.ErrAPIKeyNotFound)

	_, err := svc.Authenticate(context.Background(), "sk_bogus")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredential)
}

func TestAuthenticate_EmptySecret(t *testing.T) {
	svc := NewService(new(MockKeyRepo), new(MockMerchantRepo))
	_, err := svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredential)
}

func TestAuthenticate_EnvironmentRules(t *testing.T) {
	tests := []struct {
		name           string
		keyType        string
		merchantStatus string
		wantErr        error
	}{
		{name: "sandbox key with pending merchant", keyType: models.KeyTypeSandbox, merchantStatus: models.MerchantStatusPending},
		{name: "sandbox key with active merchant", keyType: models.KeyTypeSandbox, merchantStatus: models.MerchantStatusActive},
		{name: "sandbox key with suspended merchant", keyType: models.KeyTypeSandbox, merchantStatus: models.MerchantStatusSuspended, wantErr: domainerrors.ErrMerchantSuspended},
		{name: "production key with pending merchant", keyType: models.KeyTypeProduction, merchantStatus: models.MerchantStatusPending, wantErr: domainerrors.ErrMerchantNotActive},
		{name: "production key with active merchant", keyType: models.KeyTypeProduction, merchantStatus: models.MerchantStatusActive},
		{name: "production key with suspended merchant", keyType: models.KeyTypeProduction, merchantStatus: models.MerchantStatusSuspended, wantErr: domainerrors.ErrMerchantNotActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := new(MockKeyRepo)
			merchants := new(MockMerchantRepo)
			svc := NewService(keys, merchants)

			keys.On("GetActiveBySecretHash", mock.Anything).Return(activeKey(tt.keyType), nil)
			merchants.On("GetByID", uint(3)).Return(&models.Merchant{ID: 3, Status: tt.merchantStatus}, nil)
			keys.On("TouchLastUsed", mock.Anything, mock.Anything).Return(nil).Maybe()

			_, err := svc.Authenticate(context.Background(), secret)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthenticate_OrphanedKeyIsIntegrityError(t *testing.T) {
	keys := new(MockKeyRepo)
	merchants := new(MockMerchantRepo)
	svc := NewService(keys, merchants)

	keys.On("GetActiveBySecretHash", mock.Anything).Return(activeKey(models.KeyTypeSandbox), nil)
	merchants.On("GetByID", uint(3)).Return(nil, repositories.ErrMerchantNotFound)

	_, err := svc.Authenticate(context.Background(), secret)
	assert.ErrorIs(t, err, domainerrors.ErrDataIntegrity)
}

func TestAuthenticate_LastUsedFailureDoesNotFailAuth(t *testing.T) {
	keys := new(MockKeyRepo)
	merchants := new(MockMerchantRepo)
	svc := NewService(keys, merchants)

	keys.On("GetActiveBySecretHash", mock.Anything).Return(activeKey(models.KeyTypeSandbox), nil)
	merchants.On("GetByID", uint(3)).Return(&models.Merchant{ID: 3, Status: models.MerchantStatusActive}, nil)
	keys.On("TouchLastUsed", uint(7), mock.Anything).Return(errors.New("db down"))

	_, err := svc.Authenticate(context.Background(), secret)
	assert.NoError(t, err)
}
