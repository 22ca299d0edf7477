package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fuelpass/internal/models"
	"fuelpass/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEventRepo struct {
	mock.Mock
}

func (m *MockEventRepo) Create(event *models.WebhookEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockEventRepo) Update(event *models.WebhookEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockEventRepo) ListDue(now time.Time, limit int) ([]models.WebhookEvent, error) {
	args := m.Called(now, limit)
	return args.Get(0).([]models.WebhookEvent), args.Error(1)
}

func (m *MockEventRepo) ListByMerchant(merchantID uint, limit int) ([]models.WebhookEvent, error) {
	args := m.Called(merchantID, limit)
	return args.Get(0).([]models.WebhookEvent), args.Error(1)
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

func signingKey() *models.APIKey {
	return &models.APIKey{
		ID:            1,
		MerchantID:    3,
		KeyType:       models.KeyTypeSandbox,
		WebhookSecret: "whsec_test",
		Active:        true,
	}
}

func TestSignatureRoundTrip(t *testing.T) {
	body := []byte(`{"id":"evt_1","eventType":"checkout.approved"}`)
	header := HeaderValue("whsec_test", 1700000000, body)

	assert.Regexp(t, `^t=1700000000,v1=[0-9a-f]{64}$`, header)
	assert.True(t, VerifySignature("whsec_test", header, body))
	assert.False(t, VerifySignature("whsec_other", header, body))
	assert.False(t, VerifySignature("whsec_test", header, []byte(`tampered`)))
}

func TestSign_TimestampBindsSignature(t *testing.T) {
	body := []byte(`{}`)
	assert.NotEqual(t, Sign("s", 1, body), Sign("s", 2, body))
}

func TestSend_NoCallbackURLCreatesNoRecord(t *testing.T) {
	events := new(MockEventRepo)
	merchants := new(MockMerchantRepo)
	keys := new(MockKeyRepo)
	svc := NewService(events, merchants, keys)

	merchants.On("GetByID", uint(3)).Return(&models.Merchant{ID: 3, CallbackURL: ""}, nil)

	err := svc.Send(context.Background(), 3, "", models.EventCheckoutApproved, "checkout", "tok_1", models.JSON{})
	require.NoError(t, err)
	events.AssertNotCalled(t, "Create", mock.Anything)
}

func TestSend_QueuesAndDelivers(t *testing.T) {
	received := make(chan *http.Request, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- r.Clone(context.Background())
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	events := new(MockEventRepo)
	merchants := new(MockMerchantRepo)
	keys := new(MockKeyRepo)
	svc := NewService(events, merchants, keys)

	merchants.On("GetByID", uint(3)).Return(&models.Merchant{ID: 3, CallbackURL: server.URL}, nil)
	keys.On("GetActiveByMerchant", uint(3), models.KeyTypeProduction).Return(signingKey(), nil)

	updated := make(chan *models.WebhookEvent, 1)
	events.On("Create", mock.Anything).Return(nil)
	events.On("Update", mock.Anything).Run(func(args mock.Arguments) {
		updated <- args.Get(0).(*models.WebhookEvent)
	}).Return(nil)

	err := svc.Send(context.Background(), 3, "", models.EventCheckoutApproved, "checkout", "tok_1", models.JSON{"total": 175.0})
	require.NoError(t, err)

	select {
	case event := <-updated:
		assert.Equal(t, models.WebhookStatusSent, event.Status)
		assert.Equal(t, 1, event.Attempts)
		assert.Equal(t, http.StatusOK, event.HTTPStatus)
	case <-time.After(2 * time.Second):
		t.Fatal("delivery never recorded")
	}

	req := <-received
	assert.Regexp(t, `^t=\d+,v1=[0-9a-f]{64}$`, req.Header.Get(SignatureHeader))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
}

func TestDeliver_RetryThenSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	events := new(MockEventRepo)
	merchants := new(MockMerchantRepo)
	keys := new(MockKeyRepo)
	svc := NewService(events, merchants, keys)

	keys.On("GetActiveByMerchant", uint(3), models.KeyTypeProduction).Return(signingKey(), nil)
	events.On("Update", mock.Anything).Return(nil)

	event := &models.WebhookEvent{
		EventID:      "evt_1",
		MerchantID:   3,
		EventType:    models.EventPaymentCaptured,
		ResourceType: "checkout",
		ResourceID:   "tok_1",
		TargetURL:    server.URL,
		Status:       models.WebhookStatusPending,
	}

	// First attempt fails and schedules a retry.
	svc.Deliver(event)
	assert.Equal(t, models.WebhookStatusFailed, event.Status)
	assert.Equal(t, 1, event.Attempts)
	assert.Equal(t, http.StatusInternalServerError, event.HTTPStatus)
	require.NotNil(t, event.NextRetryAt)

	// The retry succeeds; final state is sent with attempts=2.
	svc.Deliver(event)
	assert.Equal(t, models.WebhookStatusSent, event.Status)
	assert.Equal(t, 2, event.Attempts)
	assert.Nil(t, event.NextRetryAt)
}

func TestDeliver_ExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	events := new(MockEventRepo)
	merchants := new(MockMerchantRepo)
	keys := new(MockKeyRepo)
	svc := NewService(events, merchants, keys)

	keys.On("GetActiveByMerchant", uint(3), models.KeyTypeProduction).Return(signingKey(), nil)
	events.On("Update", mock.Anything).Return(nil)

	event := &models.WebhookEvent{
		EventID:    "evt_2",
		MerchantID: 3,
		TargetURL:  server.URL,
		Status:     models.WebhookStatusPending,
	}

	for i := 0; i < MaxAttempts; i++ {
		svc.Deliver(event)
	}

	assert.Equal(t, models.WebhookStatusFailed, event.Status)
	assert.Equal(t, MaxAttempts, event.Attempts)
	// Permanently failed: no further retry is scheduled.
	assert.Nil(t, event.NextRetryAt)
}

func TestDeliver_NoSigningKeyFailsPermanently(t *testing.T) {
	events := new(MockEventRepo)
	merchants := new(MockMerchantRepo)
	keys := new(MockKeyRepo)
	svc := NewService(events, merchants, keys)

	keys.On("GetActiveByMerchant", uint(3), models.KeyTypeProduction).Return(nil, repositories.ErrAPIKeyNotFound)
	keys.On("GetActiveByMerchant", uint(3), models.KeyTypeSandbox).Return(nil, repositories.ErrAPIKeyNotFound)
	events.On("Update", mock.Anything).Return(nil)

	event := &models.WebhookEvent{EventID: "evt_3", MerchantID: 3, TargetURL: "http://localhost:1"}
	svc.Deliver(event)

	assert.Equal(t, models.WebhookStatusFailed, event.Status)
	assert.Contains(t, event.LastError, "no active signing key")
}

func TestSweep_RedrivesStrandedPendingEvent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	events := new(MockEventRepo)
	merchants := new(MockMerchantRepo)
	keys := new(MockKeyRepo)
	svc := NewService(events, merchants, keys).(*service)

	keys.On("GetActiveByMerchant", uint(3), models.KeyTypeProduction).Return(signingKey(), nil)

	// A pending event with zero attempts: Create committed but the process
	// died before the first delivery was recorded.
	stranded := models.WebhookEvent{
		EventID:    "evt_4",
		MerchantID: 3,
		EventType:  models.EventCheckoutApproved,
		TargetURL:  server.URL,
		Status:     models.WebhookStatusPending,
		CreatedAt:  time.Now().Add(-10 * time.Minute),
	}
	events.On("ListDue", mock.Anything, pollBatch).Return([]models.WebhookEvent{stranded}, nil)

	var recorded *models.WebhookEvent
	events.On("Update", mock.Anything).Run(func(args mock.Arguments) {
		recorded = args.Get(0).(*models.WebhookEvent)
	}).Return(nil)

	svc.sweep()

	require.NotNil(t, recorded)
	assert.Equal(t, models.WebhookStatusSent, recorded.Status)
	assert.Equal(t, 1, recorded.Attempts)
}

func TestBackoffSchedule(t *testing.T) {
	assert.Equal(t, 5*time.Minute, backoff(1))
	assert.Equal(t, 10*time.Minute, backoff(2))
	assert.Equal(t, 20*time.Minute, backoff(3))
}
