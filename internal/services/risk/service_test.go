package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"fuelpass/internal/models"
	"fuelpass/internal/services/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRatingRepo struct {
	mock.Mock
}

func (m *MockRatingRepo) Upsert(rating *models.CustomerRating) error {
	args := m.Called(rating)
	return args.Error(0)
}

func (m *MockRatingRepo) GetByUserID(userID string) (*models.CustomerRating, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CustomerRating), args.Error(1)
}

type stubIdentity struct {
	res *verification.IdentityResult
	err error
}

func (s stubIdentity) Initiate(context.Context, string, string) (*verification.IdentityChallenge, error) {
	return nil, nil
}

func (s stubIdentity) Confirm(context.Context, string, string) (*verification.IdentityResult, error) {
	return s.res, s.err
}

func (s stubIdentity) Evaluate(context.Context, string, string) (*verification.IdentityResult, error) {
	return s.res, s.err
}

type stubCompliance struct {
	res *verification.ComplianceResult
	err error
}

func (s stubCompliance) Evaluate(context.Context, string, string) (*verification.ComplianceResult, error) {
	return s.res, s.err
}

type stubCredit struct {
	res *verification.CreditReport
	err error
}

func (s stubCredit) Evaluate(context.Context, string, string) (*verification.CreditReport, error) {
	return s.res, s.err
}

type stubEmployment struct {
	res *verification.EmploymentProfile
	err error
}

func (s stubEmployment) Evaluate(context.Context, string, string) (*verification.EmploymentProfile, error) {
	return s.res, s.err
}

func verifiedIdentity() *verification.IdentityResult {
	return &verification.IdentityResult{
		SignalResult: verification.SignalResult{Passed: true, RiskLevel: verification.RiskLow},
		Verified:     true,
		Status:       verification.ChallengeStatusConfirmed,
		DateOfBirth:  time.Now().AddDate(-30, 0, 0),
	}
}

func cleanCompliance() *verification.ComplianceResult {
	return &verification.ComplianceResult{
		SignalResult: verification.SignalResult{Passed: true, RiskLevel: verification.RiskLow},
	}
}

func strongCredit() *verification.CreditReport {
	return &verification.CreditReport{
		SignalResult:       verification.SignalResult{Passed: true, RiskLevel: verification.RiskLow},
		Score:              800,
		Band:               verification.BandExcellent,
		RecommendedCeiling: 100000,
	}
}

func governmentJob() *verification.EmploymentProfile {
	return &verification.EmploymentProfile{
		SignalResult:     verification.SignalResult{Passed: true, RiskLevel: verification.RiskLow},
		EmployerTier:     verification.TierGovernment,
		MonthlySalary:    12000,
		Score:            90,
		CreditMultiplier: 2.0,
		MaxInstallments:  36,
	}
}

func newEngine(id *verification.IdentityResult, comp *verification.ComplianceResult, credit *verification.CreditReport, emp *verification.EmploymentProfile, repo *MockRatingRepo) Service {
	return NewService(
		stubIdentity{res: id},
		stubCompliance{res: comp},
		stubCredit{res: credit},
		stubEmployment{res: emp},
		repo,
		NoopRatingCache{},
	)
}

func TestEvaluate_PremiumCustomer(t *testing.T) {
	repo := new(MockRatingRepo)
	repo.On("Upsert", mock.Anything).Return(nil)

	engine := newEngine(verifiedIdentity(), cleanCompliance(), strongCredit(), governmentJob(), repo)

	rating, err := engine.Evaluate(context.Background(), "user-1", "29805120154321")
	require.NoError(t, err)

	assert.True(t, rating.Eligible)
	assert.Equal(t, models.TierPremium, rating.PriorityTier)
	// identity 20 + age 10 + compliance 20 + credit 21 + employment 22
	assert.Equal(t, 93, rating.OverallScore)
	assert.Equal(t, float64(GlobalCreditCeiling), rating.CreditLimit)
	assert.Equal(t, 36, rating.MaxInstallments)
	repo.AssertExpectations(t)
}

func TestEvaluate_Deterministic(t *testing.T) {
	repo := new(MockRatingRepo)
	repo.On("Upsert", mock.Anything).Return(nil)

	engine := newEngine(verifiedIdentity(), cleanCompliance(), strongCredit(), governmentJob(), repo)

	first, err := engine.Evaluate(context.Background(), "user-1", "29805120154321")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := engine.Evaluate(context.Background(), "user-1", "29805120154321")
		require.NoError(t, err)
		assert.Equal(t, first.OverallScore, again.OverallScore)
		assert.Equal(t, first.PriorityTier, again.PriorityTier)
		assert.Equal(t, first.CreditLimit, again.CreditLimit)
	}
}

func TestEvaluate_HardStops(t *testing.T) {
	criticalCompliance := &verification.ComplianceResult{
		SignalResult: verification.SignalResult{Passed: false, RiskLevel: verification.RiskCritical},
		SanctionsHit: true,
	}
	amlFlagged := &verification.ComplianceResult{
		SignalResult: verification.SignalResult{Passed: false, RiskLevel: verification.RiskHigh},
		AMLFlag:      true,
	}
	defaultedCredit := &verification.CreditReport{
		SignalResult:   verification.SignalResult{Passed: false, RiskLevel: verification.RiskCritical},
		Score:          700,
		Band:           verification.BandGood,
		DefaultedLoans: 1,
	}
	weakCredit := &verification.CreditReport{
		SignalResult: verification.SignalResult{Passed: false, RiskLevel: verification.RiskHigh},
		Score:        450,
		Band:         verification.BandPoor,
	}
	unverifiedIdentity := &verification.IdentityResult{
		SignalResult: verification.SignalResult{Passed: false, RiskLevel: verification.RiskMedium},
		Status:       verification.ChallengeStatusExpired,
	}
	underage := &verification.IdentityResult{
		SignalResult: verification.SignalResult{Passed: true, RiskLevel: verification.RiskLow},
		Verified:     true,
		DateOfBirth:  time.Now().AddDate(-17, 0, 0),
	}

	tests := []struct {
		name       string
		identity   *verification.IdentityResult
		compliance *verification.ComplianceResult
		credit     *verification.CreditReport
	}{
		{name: "sanctions match", identity: verifiedIdentity(), compliance: criticalCompliance, credit: strongCredit()},
		// The AML flag blocks until reviewed even though it is not critical.
		{name: "aml flag", identity: verifiedIdentity(), compliance: amlFlagged, credit: strongCredit()},
		{name: "defaulted loan", identity: verifiedIdentity(), compliance: cleanCompliance(), credit: defaultedCredit},
		{name: "score below floor", identity: verifiedIdentity(), compliance: cleanCompliance(), credit: weakCredit},
		{name: "identity not confirmed", identity: unverifiedIdentity, compliance: cleanCompliance(), credit: strongCredit()},
		{name: "underage", identity: underage, compliance: cleanCompliance(), credit: strongCredit()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRatingRepo)
			repo.On("Upsert", mock.Anything).Return(nil)

			engine := newEngine(tt.identity, tt.compliance, tt.credit, governmentJob(), repo)
			rating, err := engine.Evaluate(context.Background(), "user-1", "29805120154321")
			require.NoError(t, err)

			assert.False(t, rating.Eligible)
			assert.Equal(t, models.TierBlocked, rating.PriorityTier)
			assert.Zero(t, rating.CreditLimit)
			assert.Zero(t, rating.MaxInstallments)
		})
	}
}

func TestEvaluate_RestrictedTier(t *testing.T) {
	repo := new(MockRatingRepo)
	repo.On("Upsert", mock.Anything).Return(nil)

	pepMatch := &verification.ComplianceResult{
		SignalResult:   verification.SignalResult{Passed: true, RiskLevel: verification.RiskMedium},
		PEPMatch:       true,
		EnhancedReview: true,
	}
	floorCredit := &verification.CreditReport{
		SignalResult:       verification.SignalResult{Passed: true, RiskLevel: verification.RiskMedium},
		Score:              500,
		Band:               verification.BandPoor,
		RecommendedCeiling: 300,
	}
	thinJob := &verification.EmploymentProfile{
		SignalResult:     verification.SignalResult{Passed: true, RiskLevel: verification.RiskMedium},
		EmployerTier:     verification.TierSelfEmployed,
		MonthlySalary:    3000,
		Score:            12,
		CreditMultiplier: 1.0,
		MaxInstallments:  12,
	}

	engine := newEngine(verifiedIdentity(), pepMatch, floorCredit, thinJob, repo)
	rating, err := engine.Evaluate(context.Background(), "user-1", "29805120154321")
	require.NoError(t, err)

	// identity 20 + age 10 + compliance 12 (PEP) + credit 0 + employment 3
	// = 45. A PEP match never blocks, so the consumer stays eligible with a
	// restricted tier and a limit clamped to the bureau ceiling.
	assert.True(t, rating.Eligible)
	assert.Equal(t, 45, rating.OverallScore)
	assert.Equal(t, models.TierRestricted, rating.PriorityTier)
	assert.Equal(t, 300.0, rating.CreditLimit)
}

func TestEvaluate_ProviderErrorIsConservative(t *testing.T) {
	repo := new(MockRatingRepo)
	repo.On("Upsert", mock.Anything).Return(nil)

	engine := NewService(
		stubIdentity{err: errors.New("bureau timeout")},
		stubCompliance{res: cleanCompliance()},
		stubCredit{res: strongCredit()},
		stubEmployment{res: governmentJob()},
		repo,
		NoopRatingCache{},
	)

	rating, err := engine.Evaluate(context.Background(), "user-1", "29805120154321")
	require.NoError(t, err)

	// A transport failure is "not verified", never "passed".
	assert.False(t, rating.IdentityVerified)
	assert.False(t, rating.Eligible)
	assert.Equal(t, models.TierBlocked, rating.PriorityTier)
}

func TestEvaluate_ReplacesPriorRating(t *testing.T) {
	repo := new(MockRatingRepo)
	var stored *models.CustomerRating
	repo.On("Upsert", mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(0).(*models.CustomerRating)
	}).Return(nil)

	engine := newEngine(verifiedIdentity(), cleanCompliance(), strongCredit(), governmentJob(), repo)
	_, err := engine.Evaluate(context.Background(), "user-9", "30301010112345")
	require.NoError(t, err)

	require.NotNil(t, stored)
	assert.Equal(t, "user-9", stored.UserID)
	assert.False(t, stored.EvaluatedAt.IsZero())
}
